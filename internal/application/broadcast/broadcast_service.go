package broadcast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/broadcast"
)

// CreateBroadcastRequest represents a request to publish a storefront banner
type CreateBroadcastRequest struct {
	Message string `json:"message" binding:"required,min=1,max=500"`
}

// BroadcastResponse represents a broadcast in API responses
type BroadcastResponse struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToBroadcastResponse converts a domain Broadcast to BroadcastResponse
func ToBroadcastResponse(b *broadcast.Broadcast) *BroadcastResponse {
	return &BroadcastResponse{
		ID:        b.ID,
		Message:   b.Message,
		Active:    b.Active,
		CreatedAt: b.CreatedAt,
	}
}

// Service handles storefront broadcast banners. Publishing and cancelling
// are admin operations; listing active banners is public.
type Service struct {
	repo broadcast.Repository
}

// NewService creates a new broadcast Service
func NewService(repo broadcast.Repository) *Service {
	return &Service{repo: repo}
}

// Create publishes a new active broadcast
func (s *Service) Create(ctx context.Context, req CreateBroadcastRequest) (*BroadcastResponse, error) {
	b, err := broadcast.NewBroadcast(req.Message)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	return ToBroadcastResponse(b), nil
}

// Cancel deactivates a broadcast. The row stays for the audit trail.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*BroadcastResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.Cancel(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	return ToBroadcastResponse(b), nil
}

// ListActive returns the banners the storefront should currently show
func (s *Service) ListActive(ctx context.Context) ([]BroadcastResponse, error) {
	list, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]BroadcastResponse, len(list))
	for i := range list {
		responses[i] = *ToBroadcastResponse(&list[i])
	}
	return responses, nil
}
