package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrCardNotFound = errors.New("card not found")

// Card is one card instance in a user's collection. Condition uses the usual
// grading shorthand (M, NM, LP, MP, HP, DMG).
type Card struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Game      string
	Name      string
	SetName   string
	Condition string
	CreatedAt time.Time
}

// OwningUserID implements the ownership capability.
func (c *Card) OwningUserID() uuid.UUID {
	return c.OwnerID
}

type CardRepository interface {
	Create(ctx context.Context, card *Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*Card, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Card, error)
}
