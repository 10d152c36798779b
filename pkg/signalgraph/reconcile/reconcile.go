// Package reconcile implements the core diffing algorithm: given a set of
// graph roots and the NodeMap describing what the runtime currently holds,
// it produces the minimal ordered instruction batch that brings the
// runtime's state in line.
package reconcile

import (
	"sort"

	"github.com/b00lduck/elementary/pkg/signalgraph/instruction"
	"github.com/b00lduck/elementary/pkg/signalgraph/node"
)

// Reconcile walks roots breadth-first against m, mutating m in place to
// reflect the new state, and returns the ordered instruction batch that
// carries that state to the runtime.
//
// For each node encountered, in order:
//
//  1. If its hash is not yet in m, mount it: emit Create, then emit
//     AppendChild for each of its children in order.
//  2. Diff each of its properties against m's record for that hash
//     (present regardless of whether the node was just mounted) and emit
//     SetProperty only for properties whose value actually changed.
//  3. Enqueue its children, whether or not it was just mounted — a node
//     reached again through a second parent can still have property
//     changes or unmounted descendants of its own.
//
// A hash already visited earlier in this same call is not revisited: BFS
// dedup by hash is what gives a shared subexpression a single Create no
// matter how many parents reference it.
//
// The resulting batch is stably reordered so every Create precedes every
// non-Create instruction, then closed with ActivateRoots and Commit.
func Reconcile(m *NodeMap, roots []node.NodeRepr) []instruction.Instruction {
	visited := make(map[int32]bool)
	queue := append([]node.NodeRepr(nil), roots...)

	var batch []instruction.Instruction

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if visited[n.Hash] {
			continue
		}

		visited[n.Hash] = true

		if m.mountIfAbsent(n) {
			batch = append(batch, instruction.Create{Hash: n.Hash, Kind: n.Kind})

			for _, child := range n.Children {
				batch = append(batch, instruction.AppendChild{
					ParentHash:    n.Hash,
					ChildHash:     child.Hash,
					OutputChannel: child.OutputChannel,
				})
			}
		}

		for _, key := range sortedKeys(n.Props) {
			value := n.Props[key]
			if m.propertyEqual(n.Hash, key, value) {
				continue
			}

			batch = append(batch, instruction.SetProperty{Hash: n.Hash, Key: key, Value: value})
			m.setProperty(n.Hash, key, value)
		}

		queue = append(queue, n.Children...)
	}

	rootHashes := make([]int32, len(roots))
	for i, r := range roots {
		rootHashes[i] = r.Hash
	}

	batch = append(batch, instruction.ActivateRoots{RootHashes: rootHashes}, instruction.Commit{})

	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].IsCreate() && !batch[j].IsCreate()
	})

	return batch
}

func sortedKeys(props map[string]any) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
