package models

import (
	id "signet/pkg/domain"
)

// Workflow is the envelope aggregate handed to Execute callbacks: the
// envelope plus all of its recipients, read and mutated under one lock (or
// one row-locked transaction) so concurrent transitions cannot interleave.
type Workflow struct {
	Envelope   *Envelope
	Recipients []*Recipient

	// Advanced collects recipients an apply step transitioned to sent, so
	// the service can dispatch notifications after the mutation persists.
	// It is transient bookkeeping, never stored.
	Advanced []*Recipient
}

// Recipient finds a recipient by ID, or nil.
func (w *Workflow) Recipient(recipientID id.RecipientID) *Recipient {
	for _, r := range w.Recipients {
		if r.ID == recipientID {
			return r
		}
	}
	return nil
}

// PendingSigners counts signer-role recipients still in a non-terminal
// status. The envelope is complete exactly when this reaches zero.
func (w *Workflow) PendingSigners() int {
	n := 0
	for _, r := range w.Recipients {
		if r.Role == RecipientRoleSigner && !r.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// HasSigner reports whether at least one recipient can actually sign.
func (w *Workflow) HasSigner() bool {
	for _, r := range w.Recipients {
		if r.Role == RecipientRoleSigner {
			return true
		}
	}
	return false
}

// MinSignerOrder returns the smallest signing order among signer recipients,
// or 0 when there are none.
func (w *Workflow) MinSignerOrder() int {
	min := 0
	for _, r := range w.Recipients {
		if r.Role != RecipientRoleSigner {
			continue
		}
		if min == 0 || r.SigningOrder < min {
			min = r.SigningOrder
		}
	}
	return min
}

// SignersAt returns signer recipients in the given signing-order group.
func (w *Workflow) SignersAt(order int) []*Recipient {
	var out []*Recipient
	for _, r := range w.Recipients {
		if r.Role == RecipientRoleSigner && r.SigningOrder == order {
			out = append(out, r)
		}
	}
	return out
}
