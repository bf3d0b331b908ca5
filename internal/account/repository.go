package account

import "context"

// Repository defines the interface for account persistence.
type Repository interface {
	// Get retrieves an account by ID.
	// Returns ErrAccountNotFound if the account doesn't exist.
	Get(ctx context.Context, id int64) (*Account, error)

	// GetByEmail retrieves an account by its normalized email.
	// Returns ErrAccountNotFound if no account has that email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// ExistsByEmail reports whether an account with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create inserts the account and sets its ID.
	// Returns ErrEmailTaken if the email is already registered.
	Create(ctx context.Context, a *Account) error

	// Update overwrites an existing account.
	// Returns ErrAccountNotFound or ErrEmailTaken.
	Update(ctx context.Context, a *Account) error

	// Delete removes an account by ID.
	// Returns ErrAccountNotFound if the account doesn't exist.
	Delete(ctx context.Context, id int64) error

	// Search returns the accounts matching filter ordered by ID.
	Search(ctx context.Context, filter SearchFilter, offset, limit int) ([]*Account, error)
}
