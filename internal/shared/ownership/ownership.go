package ownership

import "github.com/google/uuid"

// Owned is implemented by any entity that belongs to a single user. Write
// permission checks go through this accessor instead of probing entities for
// owner-like fields.
type Owned interface {
	OwningUserID() uuid.UUID
}

// CanModify reports whether userID may mutate the entity.
func CanModify(e Owned, userID uuid.UUID) bool {
	return e.OwningUserID() == userID
}
