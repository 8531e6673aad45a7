package broadcast

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for broadcast persistence
type Repository interface {
	// FindByID finds a broadcast by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Broadcast, error)

	// FindActive returns all active broadcasts, newest first
	FindActive(ctx context.Context) ([]Broadcast, error)

	// Save creates or updates a broadcast
	Save(ctx context.Context, b *Broadcast) error
}
