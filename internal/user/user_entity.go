package user

import (
	"time"

	"go-payroll/internal/store"
)

const (
	EntityName = "user"
	SetKey     = "users:set"
)

// User is the stored account. PasswordHash never leaves this package's
// repository and service; responses use UserResponse.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Entity lays users out as user:{id} hashes with a unique email index
// (user:email:{email}).
func Entity() *store.Entity {
	return store.NewEntity(EntityName, SetKey).
		Unique("email").
		WithSchema(store.Schema{
			"name":         store.KindString,
			"email":        store.KindString,
			"passwordHash": store.KindString,
			"role":         store.KindString,
		})
}
