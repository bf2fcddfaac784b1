package cfg

import (
	"github.com/cwbudde/aicore/internal/code"
	"github.com/cwbudde/aicore/internal/instr"
)

// resolveSubroutines adds the edges jsr/ret cannot express through ordinary
// successor computation: a ret's real successor is whichever pc follows the
// jsr that entered its subroutine, which depends on the call site, not on
// the ret instruction itself. For every jsr target, every node reachable
// from the subroutine entry whose last instruction is ret is wired to the
// return pc of every jsr that calls that entry.
func resolveSubroutines(g *Graph, m *code.Method, pcs []int, pcIndex map[int]int) {
	jsrByTarget := map[int][]jsrSite{}
	for _, n := range g.Nodes {
		if n.Kind != Block {
			continue
		}
		lastPC := lastPCIn(n, pcs)
		inst, ok := m.At(lastPC)
		if !ok {
			continue
		}
		j, ok := inst.(instr.JsrInsn)
		if !ok {
			continue
		}
		returnPC := lastPC + j.Length(false)
		jsrByTarget[j.Target] = append(jsrByTarget[j.Target], jsrSite{blockID: n.ID, returnPC: returnPC})
	}
	if len(jsrByTarget) == 0 {
		return
	}

	for target, sites := range jsrByTarget {
		entryID, ok := g.byStartPC[target]
		if !ok {
			continue
		}
		retNodes := findSubroutineRetNodes(g, m, pcs, entryID)
		for _, site := range sites {
			retBlockID, ok := g.byStartPC[site.returnPC]
			if !ok {
				continue
			}
			for _, retNode := range retNodes {
				g.addEdge(retNode, retBlockID)
			}
		}
	}
}

type jsrSite struct {
	blockID  int
	returnPC int
}

// findSubroutineRetNodes walks the subgraph reachable from a subroutine's
// entry node, stopping at (and collecting) any node whose last instruction
// is ret. A node ending in a nested jsr is not descended through — its
// callee resolves its own ret independently — instead the walk continues at
// the nested jsr's return pc, where this subroutine's body resumes.
func findSubroutineRetNodes(g *Graph, m *code.Method, pcs []int, entryID int) []int {
	visited := map[int]bool{}
	var rets []int
	var walk func(id int)
	walk = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true
		n := g.Nodes[id]
		if n.Kind != Block {
			return
		}
		lastPC := lastPCIn(n, pcs)
		inst, ok := m.At(lastPC)
		if ok {
			if _, isRet := inst.(instr.RetInsn); isRet {
				rets = append(rets, id)
				return
			}
			if j, isJsr := inst.(instr.JsrInsn); isJsr {
				if contID, ok := g.byStartPC[lastPC+j.Length(false)]; ok {
					walk(contID)
				}
				return
			}
		}
		for _, s := range g.succ[id] {
			walk(s)
		}
	}
	walk(entryID)
	return rets
}

func lastPCIn(n *Node, pcs []int) int {
	last := n.StartPC
	for _, pc := range pcs {
		if pc >= n.StartPC && pc < n.EndPC {
			last = pc
		}
	}
	return last
}
