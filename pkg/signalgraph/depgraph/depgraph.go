// Package depgraph provides a narrow verification utility over an
// instruction batch: that every edge it wires references a node already
// created. It is a single linear scan tracking a seen-set of created
// hashes, not a general graph structure — the reconciler's batches are
// already topologically ordered by construction, so there is nothing here
// to sort, only to check.
package depgraph

import "github.com/b00lduck/elementary/pkg/signalgraph/instruction"

// MissingCreateError reports that an AppendChild referenced a hash with no
// prior Create, either earlier in the same batch or already present in
// the set of previously known hashes passed to VerifyCreateBeforeUse.
type MissingCreateError struct {
	ParentHash int32
	ChildHash  int32
	Missing    int32
}

// Error implements error.
func (e *MissingCreateError) Error() string {
	if e.Missing == e.ParentHash {
		return "depgraph: AppendChild references parent hash with no prior Create"
	}

	return "depgraph: AppendChild references child hash with no prior Create"
}

// VerifyCreateBeforeUse walks batch in order, tracking which hashes have
// been created, and reports the first AppendChild whose parent or child
// hash was never created — neither earlier in this batch nor already
// present in knownHashes (the hashes a NodeMap already held before this
// batch was produced).
//
// It returns nil when the batch satisfies the create-before-use invariant.
func VerifyCreateBeforeUse(batch []instruction.Instruction, knownHashes map[int32]bool) error {
	created := make(map[int32]bool, len(knownHashes))
	for h, ok := range knownHashes {
		if ok {
			created[h] = true
		}
	}

	for _, ins := range batch {
		switch v := ins.(type) {
		case instruction.Create:
			created[v.Hash] = true
		case instruction.AppendChild:
			if !created[v.ParentHash] {
				return &MissingCreateError{ParentHash: v.ParentHash, ChildHash: v.ChildHash, Missing: v.ParentHash}
			}

			if !created[v.ChildHash] {
				return &MissingCreateError{ParentHash: v.ParentHash, ChildHash: v.ChildHash, Missing: v.ChildHash}
			}
		}
	}

	return nil
}
