package pipeline

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/treetracer/internal/tree"
)

// collect returns every node reachable from root in depth-first post-order,
// visiting inputs in declaration order. The index of a node in the result is
// its tie-break rank.
func collect(root tree.Node) []tree.Node {
	seen := map[tree.Node]bool{}
	var nodes []tree.Node
	var visit func(n tree.Node)
	visit = func(n tree.Node) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		for _, in := range n.Inputs() {
			visit(in)
		}
		nodes = append(nodes, n)
	}
	visit(root)
	return nodes
}

// topologicalSort orders the graph below root with Kahn's algorithm so every
// node comes after all of its inputs. Ready nodes are taken lowest rank first,
// so sibling subtrees build in the order their consumer declares them.
func topologicalSort(root tree.Node) ([]tree.Node, error) {
	nodes := collect(root)
	rank := make(map[tree.Node]int, len(nodes))
	for i, n := range nodes {
		rank[n] = i
	}

	// Edges run input -> consumer; in-degree counts distinct inputs.
	consumers := make(map[tree.Node][]tree.Node, len(nodes))
	inDegree := make(map[tree.Node]int, len(nodes))
	for _, n := range nodes {
		distinct := map[tree.Node]bool{}
		for _, in := range n.Inputs() {
			if in == nil || distinct[in] {
				continue
			}
			distinct[in] = true
			consumers[in] = append(consumers[in], n)
			inDegree[n]++
		}
	}

	var queue []tree.Node
	for _, n := range nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	byRank := func(q []tree.Node) {
		sort.SliceStable(q, func(i, j int) bool { return rank[q[i]] < rank[q[j]] })
	}
	byRank(queue)

	result := make([]tree.Node, 0, len(nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		for _, next := range consumers[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
				byRank(queue)
			}
		}
	}

	if len(result) != len(nodes) {
		var stuck []string
		for _, n := range nodes {
			if inDegree[n] > 0 {
				stuck = append(stuck, n.Annotation())
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w involving nodes: %v", tree.ErrCycle, stuck)
	}
	return result, nil
}
