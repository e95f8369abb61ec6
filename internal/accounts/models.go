package accounts

import (
	"time"

	id "carematch/pkg/domain"
)

// User is a carematch account. Providers, families and admins share the table;
// only providers own a verification record.
type User struct {
	ID        id.UserID `json:"id"`
	Email     string    `json:"email"`
	Role      id.Role   `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
