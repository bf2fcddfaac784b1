package cfg

import "github.com/cwbudde/aicore/internal/instr"

// SimplifyPass names one rewrite of the peephole simplifier, mirroring the
// enable/disable-by-name convention the rest of this codebase's optimizer
// uses.
type SimplifyPass string

const (
	// PassGotoChain collapses a chain of blocks that contain nothing but an
	// unconditional goto into a single direct edge from every predecessor to
	// the chain's final target.
	PassGotoChain SimplifyPass = "goto-chain"
	// PassConfusedIf is the same collapse applied when a conditional
	// branch's target is itself a goto-only block: the edge is retargeted
	// past it, leaving the conditional's own semantics untouched.
	PassConfusedIf SimplifyPass = "confused-if"
)

// SimplifyOption toggles a peephole pass.
type SimplifyOption func(*simplifyConfig)

type simplifyConfig struct {
	disabled map[SimplifyPass]bool
}

// WithoutPass disables a named pass; by default every pass runs.
func WithoutPass(pass SimplifyPass) SimplifyOption {
	return func(c *simplifyConfig) {
		if c.disabled == nil {
			c.disabled = map[SimplifyPass]bool{}
		}
		c.disabled[pass] = true
	}
}

// Simplify is a graph-level cleanup that runs on an already-built Graph,
// complementary to SimplifyBytecode's instruction-array peephole pass
// (which should run first, before Build, whenever both are wanted): it
// collapses any block that still contains nothing but an unconditional
// goto — including goto-only blocks that SimplifyBytecode's chain collapse
// left behind because their own target didn't fit the encoding, and any
// that simply weren't produced by one of SimplifyBytecode's six named
// rewrites — by retargeting every edge past them.
func Simplify(g *Graph, opts ...SimplifyOption) {
	cfg := simplifyConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.disabled[PassGotoChain] || cfg.disabled[PassConfusedIf] {
		// Both named passes are really the same edge-retargeting rewrite;
		// disabling either disables the whole pass, since splitting them
		// would require re-deriving which edges originated at a
		// conditional versus a goto, information the graph no longer
		// carries once built.
		return
	}

	gotoOnly := map[int]int{} // node ID -> its single successor, for goto-only blocks
	for _, n := range g.Nodes {
		if n.Kind != Block {
			continue
		}
		if isGotoOnlyBlock(g, n) {
			if succs := g.succ[n.ID]; len(succs) == 1 {
				gotoOnly[n.ID] = succs[0]
			}
		}
	}
	if len(gotoOnly) == 0 {
		return
	}

	resolve := func(id int) int {
		seen := map[int]bool{}
		cur := id
		for {
			next, ok := gotoOnly[cur]
			if !ok || seen[cur] {
				return cur
			}
			seen[cur] = true
			cur = next
		}
	}

	for _, n := range g.Nodes {
		if _, isChain := gotoOnly[n.ID]; isChain && n.ID != g.Entry {
			continue
		}
		oldSucc := g.succ[n.ID]
		newSucc := make([]int, 0, len(oldSucc))
		seen := map[int]bool{}
		for _, s := range oldSucc {
			final := resolve(s)
			if !seen[final] {
				seen[final] = true
				newSucc = append(newSucc, final)
			}
		}
		g.succ[n.ID] = newSucc
	}
	rebuildPredecessors(g)
}

func isGotoOnlyBlock(g *Graph, n *Node) bool {
	if n.ID == g.Entry {
		return false
	}
	pcs := n.PCs(g)
	if len(pcs) != 1 {
		return false
	}
	inst, ok := g.method.At(pcs[0])
	if !ok {
		return false
	}
	switch inst.OpCode() {
	case instr.Goto, instr.GotoW:
		return true
	default:
		return false
	}
}

func rebuildPredecessors(g *Graph) {
	g.pred = map[int][]int{}
	for id, succs := range g.succ {
		for _, s := range succs {
			g.pred[s] = append(g.pred[s], id)
		}
	}
}
