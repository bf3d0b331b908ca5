package forecast

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/climatica/climatica/internal/weather"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL forecast repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a forecast by ID.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Forecast, error) {
	query := `
		SELECT id, region_id, date_time, temperature, weather_condition, created_at, updated_at
		FROM weather_forecasts
		WHERE id = $1
	`

	var f Forecast
	var condition string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&f.ID,
		&f.RegionID,
		&f.DateTime,
		&f.Temperature,
		&condition,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForecastNotFound
		}
		return nil, err
	}
	f.Condition = weather.Condition(condition)
	return &f, nil
}

// Create inserts the forecast and sets its ID.
func (r *PostgresRepository) Create(ctx context.Context, f *Forecast) error {
	query := `
		INSERT INTO weather_forecasts (
			region_id, date_time, temperature, weather_condition, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.pool.QueryRow(ctx, query,
		f.RegionID,
		f.DateTime,
		f.Temperature,
		string(f.Condition),
		f.CreatedAt,
		f.UpdatedAt,
	).Scan(&f.ID)
}

// Update overwrites an existing forecast.
func (r *PostgresRepository) Update(ctx context.Context, f *Forecast) error {
	query := `
		UPDATE weather_forecasts SET
			date_time = $2,
			temperature = $3,
			weather_condition = $4,
			updated_at = $5
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		f.ID,
		f.DateTime,
		f.Temperature,
		string(f.Condition),
		f.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrForecastNotFound
	}
	return nil
}

// Delete removes a forecast by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM weather_forecasts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrForecastNotFound
	}
	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
