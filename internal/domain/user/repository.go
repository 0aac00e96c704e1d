package user

import "context"

// UserRepository defines the persistence contract for user accounts.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) error
}
