package account

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/climatica/climatica/internal/database"
)

const emailConstraint = "accounts_email_key"

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL account repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectAccount = `
	SELECT id, first_name, last_name, email, password_hash, created_at, updated_at
	FROM accounts
`

// Get retrieves an account by ID.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Account, error) {
	return r.scanAccount(r.pool.QueryRow(ctx, selectAccount+` WHERE id = $1`, id))
}

// GetByEmail retrieves an account by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.scanAccount(r.pool.QueryRow(ctx, selectAccount+` WHERE email = $1`, email))
}

func (r *PostgresRepository) scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ExistsByEmail reports whether an account with the email exists.
func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// Create inserts the account and sets its ID.
func (r *PostgresRepository) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO accounts (first_name, last_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		a.FirstName,
		a.LastName,
		a.Email,
		a.PasswordHash,
		a.CreatedAt,
		a.UpdatedAt,
	).Scan(&a.ID)
	if database.IsUniqueViolation(err, emailConstraint) {
		return ErrEmailTaken
	}
	return err
}

// Update overwrites an existing account.
func (r *PostgresRepository) Update(ctx context.Context, a *Account) error {
	query := `
		UPDATE accounts SET
			first_name = $2,
			last_name = $3,
			email = $4,
			password_hash = $5,
			updated_at = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		a.ID,
		a.FirstName,
		a.LastName,
		a.Email,
		a.PasswordHash,
		a.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, emailConstraint) {
			return ErrEmailTaken
		}
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Delete removes an account by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Search returns the accounts matching filter ordered by ID.
// strpos keeps the match a literal, case-sensitive substring test.
func (r *PostgresRepository) Search(ctx context.Context, filter SearchFilter, offset, limit int) ([]*Account, error) {
	query := selectAccount + `
		WHERE ($1::text IS NULL OR strpos(first_name, $1) > 0)
		  AND ($2::text IS NULL OR strpos(last_name, $2) > 0)
		  AND ($3::text IS NULL OR strpos(email, $3) > 0)
		ORDER BY id
		OFFSET $4
		LIMIT $5
	`

	rows, err := r.pool.Query(ctx, query, filter.FirstName, filter.LastName, filter.Email, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		a, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
