// Package account provides account registration, credential checks and
// account management.
package account

import (
	"time"

	"github.com/climatica/climatica/internal/apperr"
)

// Account errors.
var (
	ErrAccountNotFound    = apperr.NotFound("account not found")
	ErrEmailTaken         = apperr.Conflict("email already registered")
	ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")
	ErrNotAllowed         = apperr.Forbidden("not allowed to modify this account")
)

// Account is a registered account.
type Account struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string // always lower-case
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SearchFilter holds optional case-sensitive substring filters. A nil field
// matches every account.
type SearchFilter struct {
	FirstName *string
	LastName  *string
	Email     *string
}
