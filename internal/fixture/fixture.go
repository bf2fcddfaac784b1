// Package fixture loads the YAML demonstration format documented in
// SPEC_FULL.md §4.7 into a code.Method and a typesys.Hierarchy. It is
// deliberately not a class-file reader: no constant pool, no attribute
// tables, no bytecode verification. It exists so the CLI and the fixpoint
// tests have a runnable entry point without an external class-file parser.
package fixture

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/cwbudde/aicore/internal/code"
	"github.com/cwbudde/aicore/internal/instr"
	"github.com/cwbudde/aicore/internal/typesys"
)

// Document is the top-level shape of a fixture YAML file.
type Document struct {
	Class     string          `yaml:"class"`
	Hierarchy []classEntry    `yaml:"hierarchy"`
	Methods   []methodEntry   `yaml:"methods"`
}

type classEntry struct {
	Type       string   `yaml:"type"`
	Super      string   `yaml:"super"`
	Interfaces []string `yaml:"interfaces"`
	Interface  bool     `yaml:"interface"`
	Final      bool     `yaml:"final"`
}

type methodEntry struct {
	Name       string           `yaml:"name"`
	Descriptor string           `yaml:"descriptor"`
	MaxStack   int              `yaml:"maxStack"`
	MaxLocals  int              `yaml:"maxLocals"`
	IsStatic   bool             `yaml:"static"`
	Code       []codeEntry      `yaml:"code"`
	Handlers   []handlerEntry   `yaml:"handlers"`
}

type handlerEntry struct {
	StartPC    int    `yaml:"startPC"`
	EndPC      int    `yaml:"endPC"`
	HandlerPC  int    `yaml:"handlerPC"`
	CatchType  string `yaml:"catchType"`
	CatchesAll bool   `yaml:"catchesAll"`
}

type switchCaseEntry struct {
	Value  int32 `yaml:"value"`
	Target int   `yaml:"target"`
}

// codeEntry is a union of every instruction shape's operands; only the
// fields relevant to Op need to be present in the YAML.
type codeEntry struct {
	PC  int    `yaml:"pc"`
	Op  string `yaml:"op"`

	Index *int `yaml:"index"`
	Const *int `yaml:"const"`

	Target *int `yaml:"target"`

	IntValue  *int   `yaml:"value"`
	ClassName string `yaml:"class"`

	Owner       string `yaml:"owner"`
	Member      string `yaml:"member"`
	FieldType   string `yaml:"fieldType"`
	ArgSlots    *int   `yaml:"argSlots"`
	ReturnSlots *int   `yaml:"returnSlots"`
	ReturnType  string `yaml:"returnType"`
	Interface   bool   `yaml:"interface"`

	Base       string `yaml:"base"`
	Component  string `yaml:"component"`
	Dimensions *int   `yaml:"dimensions"`

	Default       *int              `yaml:"default"`
	Cases         []switchCaseEntry `yaml:"cases"`
	EncodedLength *int              `yaml:"length"`
}

// Load parses a fixture YAML document and returns every method it declares,
// keyed by name, plus the typesys.Hierarchy built from its hierarchy
// section.
func Load(data []byte) (map[string]*code.Method, typesys.Hierarchy, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("fixture: parse: %w", err)
	}

	classes := make(map[typesys.ObjectType]typesys.ClassInfo, len(doc.Hierarchy))
	for _, c := range doc.Hierarchy {
		ci := typesys.ClassInfo{
			Interface: c.Interface,
			Final:     c.Final,
		}
		if c.Super != "" {
			ci.Super = typesys.Intern(c.Super)
		}
		for _, i := range c.Interfaces {
			ci.Interfaces = append(ci.Interfaces, typesys.Intern(i))
		}
		classes[typesys.Intern(c.Type)] = ci
	}
	hierarchy := typesys.NewMapHierarchy(classes)

	owner := typesys.Intern(doc.Class)
	methods := make(map[string]*code.Method, len(doc.Methods))
	for _, me := range doc.Methods {
		m, err := buildMethod(owner, me)
		if err != nil {
			return nil, nil, fmt.Errorf("fixture: method %s: %w", me.Name, err)
		}
		methods[me.Name] = m
	}
	return methods, hierarchy, nil
}

func buildMethod(owner typesys.ObjectType, me methodEntry) (*code.Method, error) {
	instructions := make(map[int]instr.Instruction, len(me.Code))
	for _, ce := range me.Code {
		inst, err := buildInstruction(ce)
		if err != nil {
			return nil, fmt.Errorf("pc %d: %w", ce.PC, err)
		}
		instructions[ce.PC] = inst
	}

	handlers := make([]code.ExceptionHandler, 0, len(me.Handlers))
	for _, he := range me.Handlers {
		h := code.ExceptionHandler{
			StartPC:    he.StartPC,
			EndPC:      he.EndPC,
			HandlerPC:  he.HandlerPC,
			CatchesAll: he.CatchesAll,
		}
		if he.CatchType != "" {
			h.CatchType = typesys.Intern(he.CatchType)
		}
		handlers = append(handlers, h)
	}

	return code.NewMethod(owner, me.Name, me.Descriptor, me.MaxStack, me.MaxLocals, me.IsStatic, instructions, handlers), nil
}

func buildInstruction(ce codeEntry) (instr.Instruction, error) {
	op, ok := instr.ByName(ce.Op)
	if !ok {
		return nil, fmt.Errorf("unrecognized mnemonic %q", ce.Op)
	}

	switch op {
	case instr.Iload, instr.Lload, instr.Fload, instr.Dload, instr.Aload,
		instr.Istore, instr.Lstore, instr.Fstore, instr.Dstore, instr.Astore,
		instr.Iload0, instr.Iload1, instr.Iload2, instr.Iload3,
		instr.Aload0, instr.Aload1, instr.Aload2, instr.Aload3,
		instr.Istore0, instr.Istore1, instr.Istore2, instr.Istore3,
		instr.Astore0, instr.Astore1, instr.Astore2, instr.Astore3:
		return instr.LocalVar{Op: op, Index: intOr(ce.Index, 0)}, nil

	case instr.Iinc:
		return instr.IincInsn{Index: intOr(ce.Index, 0), Const: intOr(ce.Const, 0)}, nil

	case instr.Ret:
		return instr.RetInsn{Index: intOr(ce.Index, 0)}, nil

	case instr.Bipush, instr.Sipush:
		return instr.Push{Op: op, Kind: instr.ConstInt, IntValue: intOr(ce.IntValue, 0)}, nil
	case instr.Ldc, instr.LdcW, instr.Ldc2W:
		return buildPush(op, ce)

	case instr.Ifeq, instr.Ifne, instr.Iflt, instr.Ifge, instr.Ifgt, instr.Ifle,
		instr.IfIcmpeq, instr.IfIcmpne, instr.IfIcmplt, instr.IfIcmpge, instr.IfIcmpgt, instr.IfIcmple,
		instr.IfAcmpeq, instr.IfAcmpne, instr.Ifnull, instr.Ifnonnull:
		return instr.Conditional{Op: op, Target: intOr(ce.Target, 0)}, nil

	case instr.Goto, instr.GotoW:
		return instr.GotoInsn{Op: op, Target: intOr(ce.Target, 0)}, nil
	case instr.Jsr, instr.JsrW:
		return instr.JsrInsn{Op: op, Target: intOr(ce.Target, 0)}, nil

	case instr.Tableswitch, instr.Lookupswitch:
		return buildSwitch(op, ce), nil

	case instr.Getstatic, instr.Putstatic, instr.Getfield, instr.Putfield:
		return instr.FieldRef{
			Op:        op,
			Owner:     typesys.Intern(ce.Owner),
			Name:      ce.Member,
			FieldType: parseType(ce.FieldType),
		}, nil

	case instr.Invokevirtual, instr.Invokespecial, instr.Invokestatic, instr.Invokeinterface, instr.Invokedynamic:
		ref := instr.MethodRef{
			Op:          op,
			Owner:       typesys.Intern(ce.Owner),
			Name:        ce.Member,
			ArgSlots:    intOr(ce.ArgSlots, 0),
			ReturnSlots: intOr(ce.ReturnSlots, 0),
			Interface:   ce.Interface,
		}
		if ce.ReturnType != "" {
			ref.ReturnType = parseType(ce.ReturnType)
		}
		return ref, nil

	case instr.New:
		return instr.NewInsn{Class: typesys.Intern(ce.ClassName)}, nil

	case instr.Newarray:
		return instr.NewArray{Op: op, Base: parseArrayBase(ce.Base)}, nil
	case instr.Anewarray:
		return instr.NewArray{Op: op, Component: typesys.Intern(ce.Component)}, nil
	case instr.Multianewarray:
		return instr.NewArray{Op: op, Component: typesys.Intern(ce.Component), Dimensions: intOr(ce.Dimensions, 1)}, nil

	case instr.Checkcast, instr.Instanceof:
		return instr.TypeCheck{Op: op, Target: typesys.Intern(ce.ClassName)}, nil

	default:
		return instr.Simple{Op: op}, nil
	}
}

func buildPush(op instr.OpCode, ce codeEntry) (instr.Instruction, error) {
	p := instr.Push{Op: op}
	switch {
	case ce.ClassName != "" && op != instr.Ldc2W:
		p.ClassName = typesys.Intern(ce.ClassName)
		p.Kind = instr.ConstClass
	case ce.IntValue != nil:
		p.IntValue = *ce.IntValue
		if op == instr.Ldc2W {
			p.Kind = instr.ConstLong
		} else {
			p.Kind = instr.ConstInt
		}
	default:
		p.Kind = instr.ConstString
	}
	return p, nil
}

func buildSwitch(op instr.OpCode, ce codeEntry) instr.Instruction {
	s := instr.Switch{Op: op, Default: intOr(ce.Default, 0), EncodedLength: intOr(ce.EncodedLength, 16)}
	for _, c := range ce.Cases {
		s.Cases = append(s.Cases, instr.SwitchCase{Value: c.Value, Target: c.Target})
	}
	return s
}

func parseType(name string) typesys.Type {
	switch name {
	case "byte":
		return typesys.Byte
	case "short":
		return typesys.Short
	case "int":
		return typesys.Int
	case "long":
		return typesys.Long
	case "float":
		return typesys.Float
	case "double":
		return typesys.Double
	case "char":
		return typesys.Char
	case "boolean":
		return typesys.Boolean
	case "void":
		return typesys.Void
	default:
		return typesys.Intern(name)
	}
}

func parseArrayBase(name string) instr.ArrayBaseType {
	switch name {
	case "boolean":
		return instr.ArrayBoolean
	case "char":
		return instr.ArrayChar
	case "float":
		return instr.ArrayFloat
	case "double":
		return instr.ArrayDouble
	case "byte":
		return instr.ArrayByte
	case "short":
		return instr.ArrayShort
	case "long":
		return instr.ArrayLong
	default:
		return instr.ArrayInt
	}
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
