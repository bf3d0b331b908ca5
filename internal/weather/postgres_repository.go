package weather

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/climatica/climatica/internal/database"
	"github.com/climatica/climatica/internal/region"
)

const regionConstraint = "weather_data_region_id_key"

const selectWeather = `
	SELECT
		id, region_id, temperature, humidity, wind_speed, weather_condition,
		precipitation_amount, measurement_date_time, forecast_ids,
		created_at, updated_at
	FROM weather_data
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL weather repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanWeather(row pgx.Row) (*Data, error) {
	var d Data
	var condition string
	err := row.Scan(
		&d.ID,
		&d.RegionID,
		&d.Temperature,
		&d.Humidity,
		&d.WindSpeed,
		&condition,
		&d.PrecipitationAmount,
		&d.MeasuredAt,
		&d.ForecastIDs,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Condition = Condition(condition)
	return &d, nil
}

// GetByRegionID retrieves the weather of a region.
func (r *PostgresRepository) GetByRegionID(ctx context.Context, regionID int64) (*Data, error) {
	d, err := scanWeather(r.pool.QueryRow(ctx, selectWeather+` WHERE region_id = $1`, regionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWeatherNotFound
		}
		return nil, err
	}
	return d, nil
}

// Search returns matching records ordered by measurement time, then ID.
func (r *PostgresRepository) Search(ctx context.Context, filter SearchFilter, offset, limit int) ([]*Data, error) {
	query := selectWeather + `
		WHERE ($1::bigint IS NULL OR region_id = $1)
			AND ($2::text IS NULL OR weather_condition = $2)
			AND measurement_date_time BETWEEN $3 AND $4
		ORDER BY measurement_date_time, id
		OFFSET $5 LIMIT $6
	`

	var condition *string
	if filter.Condition != nil {
		c := string(*filter.Condition)
		condition = &c
	}

	rows, err := r.pool.Query(ctx, query, filter.RegionID, condition, filter.Start, filter.End, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := []*Data{}
	for rows.Next() {
		d, err := scanWeather(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, d)
	}
	return found, rows.Err()
}

// Create inserts the record and sets its ID.
func (r *PostgresRepository) Create(ctx context.Context, d *Data) error {
	query := `
		INSERT INTO weather_data (
			region_id, temperature, humidity, wind_speed, weather_condition,
			precipitation_amount, measurement_date_time, forecast_ids,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		d.RegionID,
		d.Temperature,
		d.Humidity,
		d.WindSpeed,
		string(d.Condition),
		d.PrecipitationAmount,
		d.MeasuredAt,
		forecastIDs(d.ForecastIDs),
		d.CreatedAt,
		d.UpdatedAt,
	).Scan(&d.ID)
	if database.IsUniqueViolation(err, regionConstraint) {
		return ErrWeatherExists
	}
	return err
}

// Update overwrites the weather of d.RegionID.
func (r *PostgresRepository) Update(ctx context.Context, d *Data) error {
	return updateWeather(ctx, r.pool, d)
}

// UpdateWithRegionName renames the region and overwrites its weather in one
// transaction.
func (r *PostgresRepository) UpdateWithRegionName(ctx context.Context, d *Data, regionName string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := region.RenameTx(ctx, tx, d.RegionID, regionName, d.UpdatedAt); err != nil {
		return err
	}
	if err := updateWeather(ctx, tx, d); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// execer is satisfied by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func updateWeather(ctx context.Context, db execer, d *Data) error {
	query := `
		UPDATE weather_data SET
			temperature = $2,
			humidity = $3,
			wind_speed = $4,
			weather_condition = $5,
			precipitation_amount = $6,
			measurement_date_time = $7,
			forecast_ids = $8,
			updated_at = $9
		WHERE region_id = $1
	`

	result, err := db.Exec(ctx, query,
		d.RegionID,
		d.Temperature,
		d.Humidity,
		d.WindSpeed,
		string(d.Condition),
		d.PrecipitationAmount,
		d.MeasuredAt,
		forecastIDs(d.ForecastIDs),
		d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrWeatherNotFound
	}
	return nil
}

// UpdateForecastIDs locks the row, applies fn and writes the result back.
func (r *PostgresRepository) UpdateForecastIDs(ctx context.Context, regionID int64, at time.Time, fn func([]int64) []int64) (*Data, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	d, err := scanWeather(tx.QueryRow(ctx, selectWeather+` WHERE region_id = $1 FOR UPDATE`, regionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWeatherNotFound
		}
		return nil, err
	}

	d.ForecastIDs = fn(d.ForecastIDs)
	d.UpdatedAt = at

	_, err = tx.Exec(ctx,
		`UPDATE weather_data SET forecast_ids = $2, updated_at = $3 WHERE region_id = $1`,
		regionID, forecastIDs(d.ForecastIDs), at,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteByRegionID removes the weather of a region.
func (r *PostgresRepository) DeleteByRegionID(ctx context.Context, regionID int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM weather_data WHERE region_id = $1`, regionID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrWeatherNotFound
	}
	return nil
}

// forecastIDs keeps the column NOT NULL for records without forecasts.
func forecastIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// Ensure PostgresRepository implements Repository and AtomicRegionUpdater.
var (
	_ Repository          = (*PostgresRepository)(nil)
	_ AtomicRegionUpdater = (*PostgresRepository)(nil)
)
