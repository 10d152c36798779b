// Package node provides the canonical representation of one node in an
// audio signal graph, and the deterministic content hash that gives each
// structurally distinct subgraph its identity.
package node

import (
	"encoding/binary"
	"encoding/json"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// ChildEdge is the (hash, output channel) pair a parent records for one
// child. OutputChannel selects which output of the child feeds the
// parent's slot; most nodes use channel 0.
type ChildEdge struct {
	ChildHash     int32  `json:"child_hash"`
	OutputChannel uint32 `json:"output_channel"`
}

// NodeRepr is the deep, immutable-by-convention description of one node in
// a submitted graph. Hash is a pure function of Kind, Props, and the
// (hash, output channel) of each child — see Hash.
type NodeRepr struct {
	Kind          string         `json:"kind"`
	Props         map[string]any `json:"props,omitempty"`
	Children      []NodeRepr     `json:"children,omitempty"`
	Hash          int32          `json:"hash"`
	OutputChannel uint32         `json:"output_channel"`
}

// ShallowNodeRepr is the record kept in the NodeMap between
// reconciliations: what the runtime currently believes about one node id.
// Unlike NodeRepr it does not recursively hold child NodeReprs, only the
// edges to them.
type ShallowNodeRepr struct {
	Kind     string
	Props    map[string]any
	Children []ChildEdge
}

// New constructs a NodeRepr from its content and computes its Hash.
// OutputChannel defaults to 0; use WithOutputChannel to annotate the edge
// to a parent after construction.
func New(kind string, props map[string]any, children []NodeRepr) NodeRepr {
	if props == nil {
		props = map[string]any{}
	}

	return NodeRepr{
		Kind:     kind,
		Props:    props,
		Children: children,
		Hash:     Hash(kind, props, children),
	}
}

// WithOutputChannel returns a copy of n annotated with the given output
// channel. It does not change n.Hash: the channel describes how n attaches
// to whichever parent embeds it, not n's own structural identity.
func (n NodeRepr) WithOutputChannel(channel uint32) NodeRepr {
	n.OutputChannel = channel

	return n
}

// Edges returns the (hash, output channel) pair for each of n's direct
// children, in order — the shape the NodeMap and the hash function both
// consume.
func (n NodeRepr) Edges() []ChildEdge {
	edges := make([]ChildEdge, len(n.Children))
	for i, c := range n.Children {
		edges[i] = ChildEdge{ChildHash: c.Hash, OutputChannel: c.OutputChannel}
	}

	return edges
}

// Hash computes the 32-bit deterministic identity for a node with the
// given kind, properties, and children. Two calls with structurally equal
// arguments (including child order and each child's Hash/OutputChannel)
// always return the same value.
//
// The digest is xxhash64 over: the kind string, the canonical JSON
// encoding of props (Go's encoding/json already emits map keys in sorted
// order, which is the canonicalization the content hash needs), and the
// (hash, output_channel) of each child in order. The 64-bit digest is
// XOR-folded into 32 bits, per the spec's "32-bit variant of a well-mixed
// hash" allowance.
func Hash(kind string, props map[string]any, children []NodeRepr) int32 {
	digest := xxhash.New()

	_, _ = digest.Write([]byte(kind))

	if props == nil {
		props = map[string]any{}
	}

	canonicalProps, err := json.Marshal(props)
	if err != nil {
		// Props are always decoded JSON or constructor literals; a value
		// that cannot round-trip through json.Marshal is a caller bug.
		panic("signalgraph/node: props not JSON-serializable: " + err.Error())
	}

	_, _ = digest.Write(canonicalProps)

	var edgeBuf [8]byte

	for _, child := range children {
		binary.LittleEndian.PutUint32(edgeBuf[0:4], uint32(child.Hash))
		binary.LittleEndian.PutUint32(edgeBuf[4:8], child.OutputChannel)
		_, _ = digest.Write(edgeBuf[:])
	}

	return fold32(digest.Sum64())
}

func fold32(h uint64) int32 {
	return int32(uint32(h) ^ uint32(h>>32)) //nolint:gosec // intentional truncating fold, not a security boundary
}

// RecomputeHash returns a copy of n with Hash (and every descendant's
// Hash) recomputed bottom-up from content, ignoring whatever Hash values
// were present. It is the verification path for directives received over
// the wire, where a hash field may be stale, absent, or adversarial.
func RecomputeHash(n NodeRepr) NodeRepr {
	children := make([]NodeRepr, len(n.Children))
	for i, c := range n.Children {
		children[i] = RecomputeHash(c).WithOutputChannel(c.OutputChannel)
	}

	props := n.Props
	if props == nil {
		props = map[string]any{}
	}

	n.Children = children
	n.Props = props
	n.Hash = Hash(n.Kind, props, children)

	return n
}

// ValuesEqual reports whether two decoded JSON-like values (nil, bool,
// float64, string, []any, or map[string]any) are structurally equal. It
// backs the reconciler's property-diff minimality rule (§8.1.5).
func ValuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
