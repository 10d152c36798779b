// Package instruction defines the tagged-variant edit operations the
// reconciler emits, and their stable array-of-tuples wire encoding.
package instruction

import "encoding/json"

// Code is the wire-encoding tag of an instruction variant. Code 1 is
// intentionally reserved and never emitted.
type Code int

// Instruction variant codes, fixed by the wire contract with the runtime.
const (
	CodeCreate        Code = 0
	codeReserved      Code = 1 //nolint:unused // documents the gap in the wire contract
	CodeAppendChild   Code = 2
	CodeSetProperty   Code = 3
	CodeActivateRoots Code = 4
	CodeCommit        Code = 5
)

// Instruction is implemented by every variant below. IsCreate
// distinguishes the Create variant for the reconciler's stable reorder
// step without a type switch at every call site.
type Instruction interface {
	Code() Code
	IsCreate() bool
	json.Marshaler
}

// Create mounts a new node of the given kind under the given hash.
type Create struct {
	Hash int32
	Kind string
}

// Code implements Instruction.
func (Create) Code() Code { return CodeCreate }

// IsCreate implements Instruction.
func (Create) IsCreate() bool { return true }

// MarshalJSON encodes Create as [0, hash, kind].
func (c Create) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{CodeCreate, c.Hash, c.Kind})
}

// AppendChild wires an existing child node into a parent's slot, carrying
// the output channel selecting which of the child's outputs feeds it.
type AppendChild struct {
	ParentHash    int32
	ChildHash     int32
	OutputChannel uint32
}

// Code implements Instruction.
func (AppendChild) Code() Code { return CodeAppendChild }

// IsCreate implements Instruction.
func (AppendChild) IsCreate() bool { return false }

// MarshalJSON encodes AppendChild as [2, parent, child, output_channel].
func (a AppendChild) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{CodeAppendChild, a.ParentHash, a.ChildHash, a.OutputChannel})
}

// SetProperty updates a single named property on an already-mounted node.
type SetProperty struct {
	Hash  int32
	Key   string
	Value any
}

// Code implements Instruction.
func (SetProperty) Code() Code { return CodeSetProperty }

// IsCreate implements Instruction.
func (SetProperty) IsCreate() bool { return false }

// MarshalJSON encodes SetProperty as [3, hash, key, value].
func (s SetProperty) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{CodeSetProperty, s.Hash, s.Key, s.Value})
}

// ActivateRoots tells the runtime which node hashes are the current graph
// roots, in caller-supplied order.
type ActivateRoots struct {
	RootHashes []int32
}

// Code implements Instruction.
func (ActivateRoots) Code() Code { return CodeActivateRoots }

// IsCreate implements Instruction.
func (ActivateRoots) IsCreate() bool { return false }

// MarshalJSON encodes ActivateRoots as [4, [hash, ...]].
func (a ActivateRoots) MarshalJSON() ([]byte, error) {
	hashes := a.RootHashes
	if hashes == nil {
		hashes = []int32{}
	}

	return json.Marshal([]any{CodeActivateRoots, hashes})
}

// Commit terminates a batch; the runtime applies everything before it
// atomically from the control thread's perspective.
type Commit struct{}

// Code implements Instruction.
func (Commit) Code() Code { return CodeCommit }

// IsCreate implements Instruction.
func (Commit) IsCreate() bool { return false }

// MarshalJSON encodes Commit as [5].
func (Commit) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{CodeCommit})
}

// EncodeBatch renders an ordered instruction batch as the wire blob handed
// to the runtime collaborator: a JSON array of tagged tuples in order.
func EncodeBatch(batch []Instruction) ([]byte, error) {
	if batch == nil {
		batch = []Instruction{}
	}

	return json.Marshal(batch)
}
