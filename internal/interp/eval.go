package interp

import (
	"github.com/cwbudde/aicore/internal/aierrors"
	"github.com/cwbudde/aicore/internal/domain"
	"github.com/cwbudde/aicore/internal/domain/numeric"
	"github.com/cwbudde/aicore/internal/domain/refval"
	"github.com/cwbudde/aicore/internal/instr"
	"github.com/cwbudde/aicore/internal/typesys"
)

// stepOutcome is what evaluating one instruction against the incoming
// (ops, locals) produces: the normal-path successor state (absent if the
// instruction never falls through, e.g. a return) and zero or more thrown
// exception values paired with the pc they were thrown at.
type stepOutcome struct {
	hasNormal bool
	ops       domain.OperandStack
	locals    domain.Registers

	// branchOps/branchLocals hold the refined state for a conditional's
	// jump target, when different from the fall-through state.
	hasBranch    bool
	branchOps    domain.OperandStack
	branchLocals domain.Registers

	// fallDead/branchDead mark a conditional's successor edge the incoming
	// state proves unreachable (a null check on a value whose nullness is
	// already settled, an int comparison over concrete operands); the
	// driver skips the dead edge instead of merging state into it.
	fallDead   bool
	branchDead bool

	// isRet marks a ret instruction's outcome; retTargets carries the
	// return addresses it read from its local — the per-call-site context
	// that keeps one jsr site's state from leaking into another's return
	// pc. Empty retTargets on a ret means the address was lost to a merge
	// and the driver falls back to the CFG's subroutine-resolved edges.
	isRet      bool
	retTargets domain.ReturnAddress

	thrown      []domain.Value
	returned    domain.Value
	isReturn    bool
}

// eval evaluates the instruction at pc against the incoming state, using d
// for value construction/joins and opts to decide which implicit JVM
// exceptions are modeled.
func (in *Interpreter) eval(pc int, inst instr.Instruction, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	d := in.domain
	switch v := inst.(type) {
	case instr.Simple:
		return in.evalSimple(pc, v, ops, locals)
	case instr.LocalVar:
		return in.evalLocalVar(v, ops, locals)
	case instr.IincInsn:
		cur, _ := locals.Get(v.Index).(numeric.Int)
		next, _ := numeric.Apply(numeric.Add, cur, numeric.ExactInt(int32(v.Const)))
		return stepOutcome{hasNormal: true, ops: ops, locals: locals.Set(v.Index, next)}, nil
	case instr.RetInsn:
		ra, _ := locals.Get(v.Index).(domain.ReturnAddress)
		return stepOutcome{hasNormal: true, ops: ops, locals: locals, isRet: true, retTargets: ra}, nil
	case instr.Push:
		return in.evalPush(v, ops, locals)
	case instr.Conditional:
		return in.evalConditional(pc, v, ops, locals)
	case instr.GotoInsn:
		return stepOutcome{hasNormal: true, ops: ops, locals: locals}, nil
	case instr.JsrInsn:
		ra := domain.ReturnAddress{pc + v.Length(false)}
		return stepOutcome{hasNormal: true, ops: ops.Push(ra), locals: locals}, nil
	case instr.Switch:
		newOps, _ := ops.Pop()
		return stepOutcome{hasNormal: true, ops: newOps, locals: locals}, nil
	case instr.FieldRef:
		return in.evalFieldRef(pc, v, ops, locals)
	case instr.MethodRef:
		return in.evalMethodRef(pc, v, ops, locals)
	case instr.NewInsn:
		return stepOutcome{hasNormal: true, ops: ops.Push(d.Refs.NewObject(pc, v.Class)), locals: locals}, nil
	case instr.NewArray:
		return in.evalNewArray(pc, v, ops, locals)
	case instr.TypeCheck:
		return in.evalTypeCheck(pc, v, ops, locals)
	default:
		return stepOutcome{}, &aierrors.InconsistentCodeShapeError{Reason: "unrecognized instruction shape", PC: pc}
	}
}

func (in *Interpreter) evalSimple(pc int, v instr.Simple, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	switch v.Op {
	case instr.Nop:
		return stepOutcome{hasNormal: true, ops: ops, locals: locals}, nil
	case instr.IconstM1, instr.Iconst0, instr.Iconst1, instr.Iconst2, instr.Iconst3, instr.Iconst4, instr.Iconst5:
		return stepOutcome{hasNormal: true, ops: ops.Push(numeric.ExactInt(iconstValue(v.Op))), locals: locals}, nil
	case instr.AconstNull:
		return stepOutcome{hasNormal: true, ops: ops.Push(in.domain.Refs.NullValue(pc)), locals: locals}, nil
	case instr.Lconst0:
		return stepOutcome{hasNormal: true, ops: ops.Push(numeric.ExactLong(0)), locals: locals}, nil
	case instr.Lconst1:
		return stepOutcome{hasNormal: true, ops: ops.Push(numeric.ExactLong(1)), locals: locals}, nil
	case instr.Fconst0, instr.Fconst1, instr.Fconst2:
		return stepOutcome{hasNormal: true, ops: ops.Push(numeric.ExactFloat(float32(v.Op - instr.Fconst0))), locals: locals}, nil
	case instr.Dconst0, instr.Dconst1:
		return stepOutcome{hasNormal: true, ops: ops.Push(numeric.ExactDouble(float64(v.Op - instr.Dconst0))), locals: locals}, nil
	case instr.Pop:
		newOps, _ := ops.Pop()
		return stepOutcome{hasNormal: true, ops: newOps, locals: locals}, nil
	case instr.Pop2:
		newOps, _ := ops.Pop()
		newOps, _ = newOps.Pop()
		return stepOutcome{hasNormal: true, ops: newOps, locals: locals}, nil
	case instr.Dup:
		return stepOutcome{hasNormal: true, ops: ops.Push(ops.Peek()), locals: locals}, nil
	case instr.DupX1:
		rest, v1 := ops.Pop()
		rest, v2 := rest.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(v1).Push(v2).Push(v1), locals: locals}, nil
	case instr.DupX2:
		rest, v1 := ops.Pop()
		rest, v2 := rest.Pop()
		rest, v3 := rest.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(v1).Push(v3).Push(v2).Push(v1), locals: locals}, nil
	case instr.Dup2:
		rest, v1 := ops.Pop()
		rest, v2 := rest.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(v2).Push(v1).Push(v2).Push(v1), locals: locals}, nil
	case instr.Dup2X1:
		rest, v1 := ops.Pop()
		rest, v2 := rest.Pop()
		rest, v3 := rest.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(v2).Push(v1).Push(v3).Push(v2).Push(v1), locals: locals}, nil
	case instr.Dup2X2:
		rest, v1 := ops.Pop()
		rest, v2 := rest.Pop()
		rest, v3 := rest.Pop()
		rest, v4 := rest.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(v2).Push(v1).Push(v4).Push(v3).Push(v2).Push(v1), locals: locals}, nil
	case instr.Swap:
		rest, top := ops.Pop()
		rest2, second := rest.Pop()
		return stepOutcome{hasNormal: true, ops: rest2.Push(top).Push(second), locals: locals}, nil
	case instr.Iadd, instr.Isub, instr.Imul, instr.Idiv, instr.Irem,
		instr.Ishl, instr.Ishr, instr.Iushr, instr.Iand, instr.Ior, instr.Ixor:
		return in.evalIntBinOp(pc, v, ops, locals)
	case instr.Ineg:
		rest, a := ops.Pop()
		av, _ := a.(numeric.Int)
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.Negate(av)), locals: locals}, nil
	case instr.Ladd:
		rest, bRaw := ops.Pop()
		rest, aRaw := rest.Pop()
		a, _ := aRaw.(numeric.Long)
		b, _ := bRaw.(numeric.Long)
		result := numeric.AnyLong
		if av, aOK := a.Value(); aOK {
			if bv, bOK := b.Value(); bOK {
				result = numeric.ExactLong(av + bv)
			}
		}
		return stepOutcome{hasNormal: true, ops: rest.Push(result), locals: locals}, nil
	case instr.Fadd:
		rest, _ := ops.Pop()
		rest, _ = rest.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyFloat), locals: locals}, nil
	case instr.Dadd:
		rest, _ := ops.Pop()
		rest, _ = rest.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyDouble), locals: locals}, nil
	case instr.I2l:
		rest, a := ops.Pop()
		av, _ := a.(numeric.Int)
		if wide, exact := av.ToLong(); exact {
			return stepOutcome{hasNormal: true, ops: rest.Push(numeric.ExactLong(wide)), locals: locals}, nil
		}
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyLong), locals: locals}, nil
	case instr.L2i:
		rest, a := ops.Pop()
		av, _ := a.(numeric.Long)
		if wide, exact := av.Value(); exact {
			return stepOutcome{hasNormal: true, ops: rest.Push(numeric.ExactInt(int32(wide))), locals: locals}, nil
		}
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyInt), locals: locals}, nil
	case instr.I2f:
		rest, _ := ops.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyFloat), locals: locals}, nil
	case instr.I2d:
		rest, _ := ops.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyDouble), locals: locals}, nil
	case instr.F2i, instr.D2i:
		rest, _ := ops.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyInt), locals: locals}, nil
	case instr.Lcmp:
		rest, bRaw := ops.Pop()
		rest, aRaw := rest.Pop()
		a, _ := aRaw.(numeric.Long)
		b, _ := bRaw.(numeric.Long)
		if av, aOK := a.Value(); aOK {
			if bv, bOK := b.Value(); bOK {
				cmp := int32(0)
				switch {
				case av < bv:
					cmp = -1
				case av > bv:
					cmp = 1
				}
				return stepOutcome{hasNormal: true, ops: rest.Push(numeric.ExactInt(cmp)), locals: locals}, nil
			}
		}
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyInt), locals: locals}, nil
	case instr.Fcmpl, instr.Fcmpg, instr.Dcmpl, instr.Dcmpg:
		rest, _ := ops.Pop()
		rest, _ = rest.Pop()
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyInt), locals: locals}, nil
	case instr.Monitorenter, instr.Monitorexit:
		rest, recv := ops.Pop()
		return stepOutcome{hasNormal: true, ops: rest, locals: locals, thrown: in.maybeNPE(pc, recv, true)}, nil
	case instr.Iaload, instr.Laload, instr.Faload, instr.Daload, instr.Aaload, instr.Baload, instr.Caload, instr.Saload:
		return in.evalArrayLoad(pc, v, ops, locals)
	case instr.Iastore, instr.Lastore, instr.Fastore, instr.Dastore, instr.Aastore, instr.Bastore, instr.Castore, instr.Sastore:
		return in.evalArrayStore(pc, v, ops, locals)
	case instr.Ireturn, instr.Lreturn, instr.Freturn, instr.Dreturn, instr.Areturn:
		_, top := ops.Pop()
		if ref, ok := top.(refval.Value); ok {
			top = in.domain.Refs.Summarize(pc, ref)
		}
		return stepOutcome{isReturn: true, returned: top}, nil
	case instr.Return:
		return stepOutcome{isReturn: true}, nil
	case instr.Arraylength:
		rest, arr := ops.Pop()
		thrown := in.maybeNPE(pc, arr, in.opts.ThrowNullPointerExceptionOnArrayAccess)
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyInt), locals: locals, thrown: thrown}, nil
	case instr.Athrow:
		_, exc := ops.Pop()
		ev, _ := exc.(domain.Value)
		return stepOutcome{thrown: []domain.Value{ev}}, nil
	default:
		return stepOutcome{hasNormal: true, ops: ops, locals: locals}, nil
	}
}

func iconstValue(op instr.OpCode) int32 {
	switch op {
	case instr.IconstM1:
		return -1
	case instr.Iconst0:
		return 0
	case instr.Iconst1:
		return 1
	case instr.Iconst2:
		return 2
	case instr.Iconst3:
		return 3
	case instr.Iconst4:
		return 4
	case instr.Iconst5:
		return 5
	default:
		return 0
	}
}

func (in *Interpreter) evalIntBinOp(pc int, v instr.Simple, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	rest, bRaw := ops.Pop()
	rest, aRaw := rest.Pop()
	a, _ := aRaw.(numeric.Int)
	b, _ := bRaw.(numeric.Int)

	op := map[instr.OpCode]numeric.BinOp{
		instr.Iadd: numeric.Add, instr.Isub: numeric.Sub, instr.Imul: numeric.Mul,
		instr.Idiv: numeric.Div, instr.Irem: numeric.Rem,
		instr.Ishl: numeric.Shl, instr.Ishr: numeric.Shr, instr.Iushr: numeric.Ushr,
		instr.Iand: numeric.And, instr.Ior: numeric.Or, instr.Ixor: numeric.Xor,
	}[v.Op]

	result, err := numeric.Apply(op, a, b)
	if err != nil {
		if in.opts.ThrowArithmeticExceptions {
			return stepOutcome{thrown: []domain.Value{in.domain.Refs.NewObject(pc, instr.ArithmeticException)}}, nil
		}
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyInt), locals: locals}, nil
	}
	return stepOutcome{hasNormal: true, ops: rest.Push(result), locals: locals}, nil
}

func (in *Interpreter) evalLocalVar(v instr.LocalVar, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	idx := v.ResolvedIndex()
	if isStoreOp(v.Op) {
		rest, top := ops.Pop()
		return stepOutcome{hasNormal: true, ops: rest, locals: locals.Set(idx, top)}, nil
	}
	return stepOutcome{hasNormal: true, ops: ops.Push(locals.Get(idx)), locals: locals}, nil
}

func isStoreOp(op instr.OpCode) bool {
	switch op {
	case instr.Istore, instr.Lstore, instr.Fstore, instr.Dstore, instr.Astore,
		instr.Istore0, instr.Istore1, instr.Istore2, instr.Istore3,
		instr.Astore0, instr.Astore1, instr.Astore2, instr.Astore3:
		return true
	default:
		return false
	}
}

func (in *Interpreter) evalPush(v instr.Push, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	switch v.Kind {
	case instr.ConstInt:
		return stepOutcome{hasNormal: true, ops: ops.Push(numeric.ExactInt(int32(v.IntValue))), locals: locals}, nil
	case instr.ConstFloat:
		return stepOutcome{hasNormal: true, ops: ops.Push(numeric.AnyFloat), locals: locals}, nil
	case instr.ConstLong:
		return stepOutcome{hasNormal: true, ops: ops.Push(numeric.ExactLong(int64(v.IntValue))), locals: locals}, nil
	case instr.ConstDouble:
		return stepOutcome{hasNormal: true, ops: ops.Push(numeric.AnyDouble), locals: locals}, nil
	case instr.ConstString:
		return stepOutcome{hasNormal: true, ops: ops.Push(in.domain.Refs.StringValue(0)), locals: locals}, nil
	case instr.ConstClass:
		return stepOutcome{hasNormal: true, ops: ops.Push(in.domain.Refs.ClassValue(0)), locals: locals}, nil
	default:
		return stepOutcome{hasNormal: true, ops: ops, locals: locals}, nil
	}
}

func (in *Interpreter) evalConditional(pc int, v instr.Conditional, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	switch v.Op {
	case instr.Ifnull, instr.Ifnonnull:
		return in.evalNullCheck(pc, v, ops, locals)
	default:
		return in.evalIntConditional(pc, v, ops, locals)
	}
}

func (in *Interpreter) evalNullCheck(pc int, v instr.Conditional, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	rest, top := ops.Pop()
	out := stepOutcome{
		hasNormal: true, ops: rest, locals: locals,
		hasBranch: true, branchOps: rest, branchLocals: locals,
	}
	ref, _ := top.(refval.Value)
	if ref == nil {
		return out, nil
	}
	wantNullOnBranch := v.Op == instr.Ifnull

	// A settled nullness decides the branch; the not-taken edge is dead and
	// no refinement is requested — per the tightened contract, re-refining
	// an already-settled nullness is an error, so the driver never asks.
	if ref.IsNull() != typesys.Unknown {
		taken := (ref.IsNull() == typesys.Yes) == wantNullOnBranch
		out.fallDead = taken
		out.branchDead = !taken
		return out, nil
	}

	branchRef, err := in.domain.Refs.RefineIsNull(pc, ref, triFor(wantNullOnBranch))
	if err != nil {
		return stepOutcome{}, err
	}
	fallRef, err := in.domain.Refs.RefineIsNull(pc, ref, triFor(!wantNullOnBranch))
	if err != nil {
		return stepOutcome{}, err
	}
	out.branchOps, out.branchLocals = in.cascadeRefinement(rest, locals, ref, branchRef)
	out.ops, out.locals = in.cascadeRefinement(rest, locals, ref, fallRef)
	return out, nil
}

// intComparison pairs each int conditional with its relational test; the
// one-operand forms compare against zero.
var intComparison = map[instr.OpCode]numeric.CompareOp{
	instr.Ifeq: numeric.Equal, instr.Ifne: numeric.NotEqual,
	instr.Iflt: numeric.LessThan, instr.Ifge: numeric.GreaterEqual,
	instr.Ifgt: numeric.GreaterThan, instr.Ifle: numeric.LessEqual,
	instr.IfIcmpeq: numeric.Equal, instr.IfIcmpne: numeric.NotEqual,
	instr.IfIcmplt: numeric.LessThan, instr.IfIcmpge: numeric.GreaterEqual,
	instr.IfIcmpgt: numeric.GreaterThan, instr.IfIcmple: numeric.LessEqual,
}

func (in *Interpreter) evalIntConditional(pc int, v instr.Conditional, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	rest := ops
	b := numeric.ExactInt(0)
	var bRaw, aRaw domain.Value
	if isTwoOperandConditional(v.Op) {
		rest, bRaw = rest.Pop()
		b, _ = bRaw.(numeric.Int)
	}
	rest, aRaw = rest.Pop()
	a, _ := aRaw.(numeric.Int)

	out := stepOutcome{
		hasNormal: true, ops: rest, locals: locals,
		hasBranch: true, branchOps: rest, branchLocals: locals,
	}
	if op, hasTest := intComparison[v.Op]; hasTest {
		if taken, known := numeric.Compare(op, a, b); known {
			out.fallDead = taken
			out.branchDead = !taken
		}
	}
	return out, nil
}

func triFor(b bool) typesys.Tri {
	if b {
		return typesys.Yes
	}
	return typesys.No
}

func isTwoOperandConditional(op instr.OpCode) bool {
	switch op {
	case instr.IfIcmpeq, instr.IfIcmpne, instr.IfIcmplt, instr.IfIcmpge, instr.IfIcmpgt, instr.IfIcmple,
		instr.IfAcmpeq, instr.IfAcmpne:
		return true
	default:
		return false
	}
}

func (in *Interpreter) evalArrayLoad(pc int, v instr.Simple, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	rest, idxV := ops.Pop()
	rest, arrV := rest.Pop()
	_ = idxV
	var thrown []domain.Value
	thrown = append(thrown, in.maybeNPE(pc, arrV, in.opts.ThrowNullPointerExceptionOnArrayAccess)...)
	if in.opts.ThrowArrayIndexOutOfBoundsException {
		thrown = append(thrown, in.domain.Refs.NewObject(pc, instr.ArrayIndexOutOfBounds))
	}
	var result domain.Value
	switch v.Op {
	case instr.Laload:
		result = numeric.AnyLong
	case instr.Faload:
		result = numeric.AnyFloat
	case instr.Daload:
		result = numeric.AnyDouble
	case instr.Aaload:
		result = in.domain.Refs.NonNullObjectValue(pc, typesys.ObjectObject)
	default:
		result = numeric.AnyInt
	}
	return stepOutcome{hasNormal: true, ops: rest.Push(result), locals: locals, thrown: thrown}, nil
}

func (in *Interpreter) evalArrayStore(pc int, v instr.Simple, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	rest, _ := ops.Pop()
	rest, _ = rest.Pop()
	rest, arrV := rest.Pop()
	var thrown []domain.Value
	thrown = append(thrown, in.maybeNPE(pc, arrV, in.opts.ThrowNullPointerExceptionOnArrayAccess)...)
	if in.opts.ThrowArrayIndexOutOfBoundsException {
		thrown = append(thrown, in.domain.Refs.NewObject(pc, instr.ArrayIndexOutOfBounds))
	}
	if v.Op == instr.Aastore && in.opts.ThrowArrayStoreException {
		thrown = append(thrown, in.domain.Refs.NewObject(pc, instr.ArrayStoreException))
	}
	return stepOutcome{hasNormal: true, ops: rest, locals: locals, thrown: thrown}, nil
}

func (in *Interpreter) maybeNPE(pc int, v domain.Value, enabled bool) []domain.Value {
	if !enabled {
		return nil
	}
	if ref, ok := v.(refval.Value); ok {
		if ref.IsNull() == typesys.No {
			return nil
		}
	}
	return []domain.Value{in.domain.Refs.NewObject(pc, instr.NullPointerException)}
}

func (in *Interpreter) evalFieldRef(pc int, v instr.FieldRef, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	var thrown []domain.Value
	switch v.Op {
	case instr.Getstatic:
		return stepOutcome{hasNormal: true, ops: ops.Push(in.zeroValueFor(pc, v.FieldType)), locals: locals}, nil
	case instr.Putstatic:
		rest, _ := ops.Pop()
		return stepOutcome{hasNormal: true, ops: rest, locals: locals}, nil
	case instr.Getfield:
		rest, recv := ops.Pop()
		thrown = in.maybeNPE(pc, recv, true)
		return stepOutcome{hasNormal: true, ops: rest.Push(in.zeroValueFor(pc, v.FieldType)), locals: locals, thrown: thrown}, nil
	case instr.Putfield:
		rest, _ := ops.Pop()
		rest, recv := rest.Pop()
		thrown = in.maybeNPE(pc, recv, true)
		return stepOutcome{hasNormal: true, ops: rest, locals: locals, thrown: thrown}, nil
	default:
		return stepOutcome{hasNormal: true, ops: ops, locals: locals}, nil
	}
}

func (in *Interpreter) zeroValueFor(pc int, t typesys.Type) domain.Value {
	switch tv := t.(type) {
	case typesys.Primitive:
		switch tv {
		case typesys.Long:
			return numeric.AnyLong
		case typesys.Float:
			return numeric.AnyFloat
		case typesys.Double:
			return numeric.AnyDouble
		default:
			return numeric.AnyInt
		}
	case typesys.ObjectType:
		return in.domain.Refs.NonNullObjectValue(pc, tv)
	case typesys.ArrayType:
		return in.domain.Refs.ArrayValue(pc, tv)
	default:
		return numeric.AnyInt
	}
}

func (in *Interpreter) evalMethodRef(pc int, v instr.MethodRef, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	rest := ops
	args := make([]domain.Value, v.ArgSlots)
	for i := v.ArgSlots - 1; i >= 0; i-- {
		rest, args[i] = rest.Pop()
	}
	var thrown []domain.Value
	var recv domain.Value
	hasRecv := v.Op != instr.Invokestatic && v.Op != instr.Invokedynamic
	if hasRecv {
		rest, recv = rest.Pop()
		thrown = in.maybeNPE(pc, recv, true)
	}

	if in.resolveCallee != nil && in.invocationDepth < maxInvocationDepth {
		if out, ok := in.interpretCallee(pc, v, recv, hasRecv, args, rest, locals, thrown); ok {
			return out, nil
		}
	}

	// Non-interpretive stub: the fallback every unresolved (or
	// resolver-less) call takes.
	if v.ReturnSlots == 0 {
		return stepOutcome{hasNormal: true, ops: rest, locals: locals, thrown: thrown}, nil
	}
	ret := v.ReturnType
	if ret == nil {
		ret = typesys.ObjectObject
	}
	return stepOutcome{hasNormal: true, ops: rest.Push(in.zeroValueFor(pc, ret)), locals: locals, thrown: thrown}, nil
}

func (in *Interpreter) evalNewArray(pc int, v instr.NewArray, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	dims := v.Dimensions
	if dims == 0 {
		dims = 1
	}
	rest := ops
	for i := 0; i < dims; i++ {
		rest, _ = rest.Pop()
	}
	var at typesys.ArrayType
	if v.Op == instr.Newarray {
		at = typesys.NewArrayType(v.Base.Primitive(), 1)
	} else {
		at = typesys.NewArrayType(v.Component, dims)
	}
	thrown := []domain.Value{in.domain.Refs.NewObject(pc, instr.NegativeArraySizeException)}
	return stepOutcome{hasNormal: true, ops: rest.Push(in.domain.Refs.NewArray(pc, at)), locals: locals, thrown: thrown}, nil
}

func (in *Interpreter) evalTypeCheck(pc int, v instr.TypeCheck, ops domain.OperandStack, locals domain.Registers) (stepOutcome, error) {
	rest, top := ops.Pop()
	if v.Op == instr.Instanceof {
		return stepOutcome{hasNormal: true, ops: rest.Push(numeric.AnyInt), locals: locals}, nil
	}
	ref, ok := top.(refval.Value)
	if !ok {
		return stepOutcome{hasNormal: true, ops: rest.Push(top), locals: locals}, nil
	}
	refined, err := in.domain.Refs.RefineUpperTypeBound(pc, ref, typesys.ObjectUTB(v.Target))
	thrown := []domain.Value{in.domain.Refs.NewObject(pc, instr.ClassCastException)}
	if err != nil {
		return stepOutcome{hasNormal: true, ops: rest.Push(top), locals: locals, thrown: thrown}, nil
	}
	newOps, newLocals := in.cascadeRefinement(rest, locals, ref, refined)
	return stepOutcome{hasNormal: true, ops: newOps.Push(refined), locals: newLocals, thrown: thrown}, nil
}

// cascadeRefinement replaces every other occurrence of old across ops and
// locals with refined, per §4.4's "applied throughout the operand stack and
// register file" requirement — including rebuilding any Multi that held old
// as a member. The slot that triggered the refinement is excluded by the
// caller (it pushes refined explicitly afterward).
func (in *Interpreter) cascadeRefinement(ops domain.OperandStack, locals domain.Registers, old, refined refval.Value) (domain.OperandStack, domain.Registers) {
	newOps := append(domain.OperandStack(nil), ops...)
	newLocals := append(domain.Registers(nil), locals...)
	replacements := map[refval.Value]refval.Value{old: refined}
	in.domain.Refs.Cascade([]refval.Slots{refval.Slots(newOps), refval.Slots(newLocals)}, replacements)
	return newOps, newLocals
}
