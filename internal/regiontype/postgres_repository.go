package regiontype

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/climatica/climatica/internal/database"
)

const labelConstraint = "region_types_type_key"

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL region type repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a region type by ID.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*RegionType, error) {
	return r.scanOne(ctx, `SELECT id, type FROM region_types WHERE id = $1`, id)
}

// FindByLabel retrieves a region type by its exact label.
func (r *PostgresRepository) FindByLabel(ctx context.Context, label string) (*RegionType, error) {
	return r.scanOne(ctx, `SELECT id, type FROM region_types WHERE type = $1`, label)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, arg any) (*RegionType, error) {
	var rt RegionType
	err := r.pool.QueryRow(ctx, query, arg).Scan(&rt.ID, &rt.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTypeNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// Create inserts the type and sets its ID.
func (r *PostgresRepository) Create(ctx context.Context, rt *RegionType) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO region_types (type) VALUES ($1) RETURNING id`,
		rt.Label,
	).Scan(&rt.ID)
	if database.IsUniqueViolation(err, labelConstraint) {
		return ErrTypeTaken
	}
	return err
}

// Update overwrites an existing type.
func (r *PostgresRepository) Update(ctx context.Context, rt *RegionType) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE region_types SET type = $2 WHERE id = $1`,
		rt.ID, rt.Label,
	)
	if err != nil {
		if database.IsUniqueViolation(err, labelConstraint) {
			return ErrTypeTaken
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTypeNotFound
	}
	return nil
}

// Delete removes a type by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM region_types WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTypeNotFound
	}
	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
