package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines user persistence.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, role *Role, limit, offset int) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Count(ctx context.Context) (int64, error)
}
