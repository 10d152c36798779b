package reconcile

import (
	"sync"

	"github.com/b00lduck/elementary/pkg/signalgraph/node"
)

// NodeMap is the control thread's persistent record of every node hash the
// runtime currently believes about, across reconciliations. It is the
// "memory" against which each new directive is diffed.
//
// Access is guarded by an RWMutex rather than a plain mutex, mirroring the
// read-heavy double-checked-lock shape used elsewhere in this codebase for
// intern-style tables: most lookups during a reconciliation are read-only
// existence checks, with writes only on the first sighting of a hash or a
// genuine property change.
type NodeMap struct {
	mu    sync.RWMutex
	nodes map[int32]node.ShallowNodeRepr
}

// NewNodeMap returns an empty NodeMap, as held by a freshly started engine.
func NewNodeMap() *NodeMap {
	return &NodeMap{nodes: make(map[int32]node.ShallowNodeRepr)}
}

// Get returns the record for hash and whether it is present.
func (m *NodeMap) Get(hash int32) (node.ShallowNodeRepr, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[hash]

	return n, ok
}

// Len reports how many distinct node hashes the map currently holds.
func (m *NodeMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.nodes)
}

// Hashes returns a snapshot of every hash currently recorded in the map,
// suitable as the knownHashes argument to depgraph.VerifyCreateBeforeUse
// when taken before a reconciliation mutates m.
func (m *NodeMap) Hashes() map[int32]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[int32]bool, len(m.nodes))
	for h := range m.nodes {
		snapshot[h] = true
	}

	return snapshot
}

// mountIfAbsent inserts a shallow record for n if hash is not yet present,
// with an empty property map: the property step, not the mount step, is
// responsible for populating properties, so that every property arrives on
// the wire as an explicit SetProperty rather than being folded invisibly
// into Create.
//
// It reports whether it performed the insert.
func (m *NodeMap) mountIfAbsent(n node.NodeRepr) bool {
	m.mu.RLock()
	_, exists := m.nodes[n.Hash]
	m.mu.RUnlock()

	if exists {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nodes[n.Hash]; exists {
		return false
	}

	m.nodes[n.Hash] = node.ShallowNodeRepr{
		Kind:     n.Kind,
		Props:    map[string]any{},
		Children: n.Edges(),
	}

	return true
}

// propertyEqual reports whether hash's current recorded value for key
// already equals value. A hash absent from the map (should not happen once
// mountIfAbsent has run for it) is treated as having no properties set.
func (m *NodeMap) propertyEqual(hash int32, key string, value any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	existing, ok := m.nodes[hash]
	if !ok {
		return false
	}

	current, ok := existing.Props[key]
	if !ok {
		return false
	}

	return node.ValuesEqual(current, value)
}

// setProperty records that hash's key now has value.
func (m *NodeMap) setProperty(hash int32, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.nodes[hash]
	if !ok {
		return
	}

	if existing.Props == nil {
		existing.Props = map[string]any{}
	}

	existing.Props[key] = value
	m.nodes[hash] = existing
}
