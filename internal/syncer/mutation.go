package syncer

import (
	"github.com/avolkov/vitrine/internal/catalog"
	"github.com/avolkov/vitrine/pkg/models"
)

// MutationState tracks an optimistic mutation through its lifecycle:
// pending (cache already edited, server call in flight), then either
// committed or rolled back.
type MutationState int

const (
	MutationPending MutationState = iota
	MutationCommitted
	MutationRolledBack
)

func (s MutationState) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationCommitted:
		return "committed"
	case MutationRolledBack:
		return "rolledBack"
	default:
		return "unknown"
	}
}

// deleteMutation is the snapshot of everything an optimistic delete touched,
// sufficient to restore the cache exactly if the server call fails.
type deleteMutation struct {
	productID int64
	state     MutationState
	// snapshots maps affected signatures to deep copies of their pre-delete
	// pages, in the order they were cached.
	snapshots map[string][]catalog.Page[models.Product]
}

// State returns the mutation's current lifecycle state.
func (m *deleteMutation) State() MutationState {
	return m.state
}
