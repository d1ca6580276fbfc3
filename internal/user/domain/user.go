package domain

import (
	"context"

	"github.com/google/uuid"
)

// User is the identity boundary: signup, login and token issuance happen
// upstream, the marketplace only needs identities to compare.
type User struct {
	ID       uuid.UUID
	Username string
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}
