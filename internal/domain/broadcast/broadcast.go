package broadcast

import (
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// Broadcast is a site-wide announcement. Cancellation is soft: the row stays
// around with active=false.
type Broadcast struct {
	shared.BaseEntity
	Message string `gorm:"type:text;not null"`
	Active  bool   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (Broadcast) TableName() string {
	return "broadcasts"
}

// NewBroadcast creates an active broadcast
func NewBroadcast(message string) (*Broadcast, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Broadcast message cannot be empty")
	}

	return &Broadcast{
		BaseEntity: shared.NewBaseEntity(),
		Message:    message,
		Active:     true,
	}, nil
}

// Cancel deactivates the broadcast without deleting it
func (b *Broadcast) Cancel() error {
	if !b.Active {
		return shared.NewDomainError("INVALID_STATE", "Broadcast is already cancelled")
	}
	b.Active = false
	b.UpdatedAt = time.Now()
	return nil
}
