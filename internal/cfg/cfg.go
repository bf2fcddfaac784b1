// Package cfg builds the control flow graph a method's abstract
// interpretation runs over: basic blocks, catch-block entry nodes, and the
// two synthetic exit nodes every method gets (normalReturn, abnormalReturn),
// plus the bytecode peephole simplifications applied before interpretation.
package cfg

import (
	"sort"

	"github.com/cwbudde/aicore/internal/code"
	"github.com/cwbudde/aicore/internal/instr"
	"github.com/cwbudde/aicore/internal/typesys"
)

// NodeKind distinguishes the small closed set of CFG node shapes.
type NodeKind int

const (
	// Block is an ordinary basic block: a maximal run of instructions with
	// no incoming edge except at its first pc and no outgoing edge except
	// at its last.
	Block NodeKind = iota
	// Catch is the single-instruction entry point of an exception handler;
	// it exists so multiple handlers guarding overlapping ranges don't have
	// to share a block with the guarded code.
	Catch
	// NormalReturn is the synthetic sink every *return instruction flows
	// into.
	NormalReturn
	// AbnormalReturn is the synthetic sink every athrow (or implicit JVM
	// exception) with no matching handler flows into.
	AbnormalReturn
)

func (k NodeKind) String() string {
	switch k {
	case Block:
		return "block"
	case Catch:
		return "catch"
	case NormalReturn:
		return "normal-return"
	case AbnormalReturn:
		return "abnormal-return"
	default:
		return "unknown"
	}
}

// Node is one CFG vertex. For Block nodes, StartPC is the pc of the node's
// first instruction and EndPC is one past the last. A Catch node has
// StartPC == EndPC == its handler pc, an empty half-open range, as do the
// two synthetic sinks.
type Node struct {
	ID      int
	Kind    NodeKind
	StartPC int
	EndPC   int
	Handler *code.ExceptionHandler // non-nil iff Kind == Catch
}

// PCs returns every instruction pc contained in this node, in order.
func (n *Node) PCs(g *Graph) []int {
	if n.Kind != Block {
		return nil
	}
	var out []int
	for _, pc := range g.method.PCs() {
		if pc >= n.StartPC && pc < n.EndPC {
			out = append(out, pc)
		}
	}
	return out
}

// Graph is the control flow graph of one method.
type Graph struct {
	method *code.Method

	Nodes []*Node
	Entry int // node ID of the block containing the method's first instruction

	succ map[int][]int
	pred map[int][]int

	byStartPC map[int]int // block/catch start pc -> node ID
}

// Successors returns the IDs of nodes reachable directly from node id.
func (g *Graph) Successors(id int) []int { return append([]int(nil), g.succ[id]...) }

// Predecessors returns the IDs of nodes with a direct edge to node id.
func (g *Graph) Predecessors(id int) []int { return append([]int(nil), g.pred[id]...) }

// Node looks up a node by ID.
func (g *Graph) Node(id int) *Node { return g.Nodes[id] }

// NodeAt returns the block or catch node starting at pc, if any.
func (g *Graph) NodeAt(pc int) (*Node, bool) {
	id, ok := g.byStartPC[pc]
	if !ok {
		return nil, false
	}
	return g.Nodes[id], true
}

// NodeContaining returns the block whose [StartPC, EndPC) range contains pc,
// if any.
func (g *Graph) NodeContaining(pc int) (*Node, bool) {
	for _, n := range g.Nodes {
		if n.Kind == Block && pc >= n.StartPC && pc < n.EndPC {
			return n, true
		}
	}
	return nil, false
}

func (g *Graph) addEdge(from, to int) {
	for _, s := range g.succ[from] {
		if s == to {
			return
		}
	}
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
}

// Build constructs the CFG of method. It discovers block leaders (the
// entry, every branch/switch target, the instruction after every
// conditional/throwing instruction, and every handler entry), splits the
// method's instructions into blocks at those leaders, wires regular and
// exceptional edges (the latter filtered against hierarchy so a node only
// reaches the catch nodes whose handler could actually catch one of its
// JVMExceptions), resolves jsr/ret subroutine edges, and attaches the two
// synthetic exit nodes. hierarchy may be nil, in which case every covering
// handler is treated as potentially applicable.
func Build(method *code.Method, hierarchy typesys.Hierarchy) *Graph {
	b := &builder{method: method, hierarchy: hierarchy}
	return b.build()
}

type builder struct {
	method    *code.Method
	hierarchy typesys.Hierarchy
}

func (b *builder) build() *Graph {
	pcs := b.method.PCs()
	if len(pcs) == 0 {
		g := &Graph{method: b.method, succ: map[int][]int{}, pred: map[int][]int{}, byStartPC: map[int]int{}}
		nr := b.appendSink(g, NormalReturn)
		_ = nr
		return g
	}

	leaders := b.discoverLeaders(pcs)

	g := &Graph{method: b.method, succ: map[int][]int{}, pred: map[int][]int{}, byStartPC: map[int]int{}}

	// Build ordinary blocks between consecutive leaders.
	sortedLeaders := append([]int(nil), leaders...)
	sort.Ints(sortedLeaders)
	pcIndex := map[int]int{}
	for i, pc := range pcs {
		pcIndex[pc] = i
	}

	for i, start := range sortedLeaders {
		end := len(pcs) // exclusive index into pcs of the block's end
		if i+1 < len(sortedLeaders) {
			end = pcIndex[sortedLeaders[i+1]]
		}
		startIdx := pcIndex[start]
		endPC := start
		if end > 0 && end <= len(pcs) {
			if end == len(pcs) {
				last, _ := b.method.At(pcs[len(pcs)-1])
				endPC = pcs[len(pcs)-1] + last.Length(false)
			} else {
				endPC = pcs[end]
			}
		}
		_ = startIdx
		id := len(g.Nodes)
		g.Nodes = append(g.Nodes, &Node{ID: id, Kind: Block, StartPC: start, EndPC: endPC})
		g.byStartPC[start] = id
	}

	// Catch nodes, one per handler entry pc not already a block leader's
	// own handler-specific node; distinct handlers sharing a HandlerPC
	// share one Catch node.
	seenHandlerPC := map[int]int{}
	for i := range b.method.Handlers() {
		h := b.method.Handlers()[i]
		if _, ok := seenHandlerPC[h.HandlerPC]; ok {
			continue
		}
		id := len(g.Nodes)
		g.Nodes = append(g.Nodes, &Node{ID: id, Kind: Catch, StartPC: h.HandlerPC, EndPC: h.HandlerPC, Handler: &h})
		seenHandlerPC[h.HandlerPC] = id
	}

	normalReturn := b.appendSink(g, NormalReturn)
	abnormalReturn := b.appendSink(g, AbnormalReturn)

	entryID, ok := g.byStartPC[pcs[0]]
	if !ok {
		entryID = 0
	}
	g.Entry = entryID

	// Wire regular and exceptional edges from the last instruction of every
	// block (and from every catch node, whose single instruction is the pc
	// it starts at).
	for _, n := range g.Nodes {
		if n.Kind == NormalReturn || n.Kind == AbnormalReturn {
			continue
		}
		lastPC := b.lastInstructionPC(n, pcs, pcIndex)
		inst, ok := b.method.At(lastPC)
		if !ok {
			continue
		}
		regular := inst.NextInstructions(lastPC, true, b.method, b.hierarchy)
		for _, target := range regular {
			b.connectPC(g, n.ID, target, normalReturn, seenHandlerPC)
		}
		if len(regular) == 0 && isReturnOpcode(inst) {
			g.addEdge(n.ID, normalReturn)
		}

		exceptional := exceptionalOnly(inst.NextInstructions(lastPC, false, b.method, b.hierarchy), regular)
		for _, target := range exceptional {
			if cid, ok := seenHandlerPC[target]; ok {
				g.addEdge(n.ID, cid)
			}
		}
		if exTypes := inst.JVMExceptions(); len(exTypes) > 0 {
			covered := b.method.HandlersCovering(lastPC)
			if len(covered) == 0 || !allExceptionsCertainlyCaught(exTypes, covered, b.hierarchy) {
				g.addEdge(n.ID, abnormalReturn)
			}
		}
		if inst.OpCode() == instr.Athrow {
			if len(b.method.HandlersCovering(lastPC)) == 0 {
				g.addEdge(n.ID, abnormalReturn)
			}
		}
	}

	resolveSubroutines(g, b.method, pcs, pcIndex)

	return g
}

func (b *builder) appendSink(g *Graph, kind NodeKind) int {
	id := len(g.Nodes)
	g.Nodes = append(g.Nodes, &Node{ID: id, Kind: kind})
	return id
}

func (b *builder) connectPC(g *Graph, from, targetPC, normalReturn int, catchByPC map[int]int) {
	if id, ok := g.byStartPC[targetPC]; ok {
		g.addEdge(from, id)
		return
	}
	if id, ok := catchByPC[targetPC]; ok {
		g.addEdge(from, id)
		return
	}
}

func (b *builder) lastInstructionPC(n *Node, pcs []int, pcIndex map[int]int) int {
	last := n.StartPC
	for _, pc := range pcs {
		if pc >= n.StartPC && pc < n.EndPC {
			last = pc
		}
	}
	return last
}

// discoverLeaders finds every pc that must begin a new block: the method
// entry, every branch/jsr/switch target, the fallthrough pc of any
// conditional, subroutine-call or implicitly throwing instruction, and every
// exception handler entry.
func (b *builder) discoverLeaders(pcs []int) []int {
	set := map[int]bool{pcs[0]: true}
	for _, h := range b.method.Handlers() {
		set[h.HandlerPC] = true
	}
	for _, pc := range pcs {
		inst, _ := b.method.At(pc)
		regular := inst.NextInstructions(pc, true, nil, b.hierarchy)
		if len(regular) > 1 || isBranchOpcode(inst) {
			for _, t := range regular {
				set[t] = true
			}
		}
		// An instruction that can implicitly throw must end its block, even
		// when it has exactly one regular successor, so the wiring pass
		// (which only inspects a block's last instruction) sees it and can
		// attach the exceptional edge.
		if len(inst.JVMExceptions()) > 0 {
			for _, t := range regular {
				set[t] = true
			}
		}
		// A jsr's fall-through pc is the subroutine's return address; it must
		// start its own block so resolveSubroutines can wire ret edges to it
		// even though it is not among the jsr's regular successors.
		if j, ok := inst.(instr.JsrInsn); ok {
			set[pc+j.Length(false)] = true
		}
	}
	out := make([]int, 0, len(set))
	for pc := range set {
		out = append(out, pc)
	}
	return out
}

func isBranchOpcode(i instr.Instruction) bool {
	switch i.OpCode() {
	case instr.Goto, instr.GotoW, instr.Jsr, instr.JsrW, instr.Ret,
		instr.Ifeq, instr.Ifne, instr.Iflt, instr.Ifge, instr.Ifgt, instr.Ifle,
		instr.IfIcmpeq, instr.IfIcmpne, instr.IfIcmplt, instr.IfIcmpge, instr.IfIcmpgt, instr.IfIcmple,
		instr.IfAcmpeq, instr.IfAcmpne, instr.Ifnull, instr.Ifnonnull,
		instr.Tableswitch, instr.Lookupswitch:
		return true
	default:
		return false
	}
}

func isReturnOpcode(i instr.Instruction) bool {
	switch i.OpCode() {
	case instr.Ireturn, instr.Lreturn, instr.Freturn, instr.Dreturn, instr.Areturn, instr.Return:
		return true
	default:
		return false
	}
}

// allExceptionsCertainlyCaught reports whether every type in exTypes is
// guaranteed to be caught by some handler in covered: a finally-style
// handler always qualifies, a typed handler qualifies only when hierarchy
// proves it a supertype of that exception type. When hierarchy is nil, or
// the comparison is Unknown, a typed handler cannot certify the catch, so
// the instruction's exceptional edge to the abnormal-return sink is kept —
// the same conservative default the unfiltered catch edges already use.
func allExceptionsCertainlyCaught(exTypes []typesys.ObjectType, covered []instr.HandlerRef, hierarchy typesys.Hierarchy) bool {
	for _, ex := range exTypes {
		caught := false
		for _, h := range covered {
			if !h.HasCatchType {
				caught = true
				break
			}
			if hierarchy != nil && hierarchy.IsSubtypeOf(ex, h.CatchType) == typesys.Yes {
				caught = true
				break
			}
		}
		if !caught {
			return false
		}
	}
	return true
}

func exceptionalOnly(all, regular []int) []int {
	regSet := map[int]bool{}
	for _, r := range regular {
		regSet[r] = true
	}
	var out []int
	for _, a := range all {
		if !regSet[a] {
			out = append(out, a)
		}
	}
	return out
}
