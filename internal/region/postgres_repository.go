package region

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/climatica/climatica/internal/database"
)

const coordinatesConstraint = "regions_coordinates_key"

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL region repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a region by ID.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Region, error) {
	query := `
		SELECT
			id, name, latitude, longitude, region_type_id, parent_region,
			owner_account_id, created_at, updated_at
		FROM regions
		WHERE id = $1
	`

	var reg Region
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&reg.ID,
		&reg.Name,
		&reg.Latitude,
		&reg.Longitude,
		&reg.RegionTypeID,
		&reg.ParentRegion,
		&reg.OwnerAccountID,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegionNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// ExistsAt reports whether a region sits at exactly these coordinates.
func (r *PostgresRepository) ExistsAt(ctx context.Context, latitude, longitude float64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM regions WHERE latitude = $1 AND longitude = $2)`,
		latitude, longitude,
	).Scan(&exists)
	return exists, err
}

// Create inserts the region and sets its ID.
func (r *PostgresRepository) Create(ctx context.Context, reg *Region) error {
	query := `
		INSERT INTO regions (
			name, latitude, longitude, region_type_id, parent_region,
			owner_account_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		reg.Name,
		reg.Latitude,
		reg.Longitude,
		reg.RegionTypeID,
		reg.ParentRegion,
		reg.OwnerAccountID,
		reg.CreatedAt,
		reg.UpdatedAt,
	).Scan(&reg.ID)
	if database.IsUniqueViolation(err, coordinatesConstraint) {
		return ErrCoordinatesTaken
	}
	return err
}

// Update overwrites an existing region.
func (r *PostgresRepository) Update(ctx context.Context, reg *Region) error {
	query := `
		UPDATE regions SET
			name = $2,
			latitude = $3,
			longitude = $4,
			region_type_id = $5,
			parent_region = $6,
			updated_at = $7
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		reg.ID,
		reg.Name,
		reg.Latitude,
		reg.Longitude,
		reg.RegionTypeID,
		reg.ParentRegion,
		reg.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, coordinatesConstraint) {
			return ErrCoordinatesTaken
		}
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrRegionNotFound
	}
	return nil
}

// RenameTx sets the name of region id inside tx.
// Returns ErrRegionNotFound if the region doesn't exist.
func RenameTx(ctx context.Context, tx pgx.Tx, id int64, name string, at time.Time) error {
	result, err := tx.Exec(ctx,
		`UPDATE regions SET name = $2, updated_at = $3 WHERE id = $1`,
		id, name, at,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRegionNotFound
	}
	return nil
}

// Delete removes a region by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM regions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRegionNotFound
	}
	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
