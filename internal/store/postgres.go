package store

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/transitfusion/fusion_core/internal/gtfsstatic"
	"github.com/transitfusion/fusion_core/internal/models"
)

const batchSize = 1000

// PostgresConfig holds the pool connection settings, loaded from the
// environment the same way the rest of this codebase loads config.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MinConns int32
	MaxConns int32
}

// LoadPostgresConfigFromEnv builds a PostgresConfig from environment
// variables, applying development-friendly defaults.
func LoadPostgresConfigFromEnv() PostgresConfig {
	return PostgresConfig{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenvInt("DB_PORT", 5432),
		Database: getenv("DB_NAME", "fusion"),
		User:     getenv("DB_USER", "postgres"),
		Password: getenv("DB_PASSWORD", ""),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
		MinConns: int32(getenvInt("DB_MIN_CONNS", 2)),
		MaxConns: int32(getenvInt("DB_MAX_CONNS", 10)),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// PostgresStore is a pgx/pgxpool-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a pool against the given config and pings it.
// It does not check for or create the schema; the tables must already
// exist before first use.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.SSLMode,
	)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) StopTimesByTrip(ctx context.Context) (map[string][]models.StopTime, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT trip_id, stop_id, stop_sequence, arrival_time, departure_time
		FROM stop_time
		ORDER BY trip_id, stop_sequence
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stop_time: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.StopTime)
	for rows.Next() {
		var st models.StopTime
		if err := rows.Scan(&st.TripID, &st.StopID, &st.StopSequence, &st.ArrivalTime, &st.DepartureTime); err != nil {
			return nil, fmt.Errorf("scanning stop_time: %w", err)
		}
		out[st.TripID] = append(out[st.TripID], st)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Stop(ctx context.Context, stopID string) (*models.Stop, error) {
	var stop models.Stop
	err := s.pool.QueryRow(ctx, `
		SELECT stop_id, stop_name, lat, lon, location_type, parent_station
		FROM stop WHERE stop_id = $1
	`, stopID).Scan(&stop.StopID, &stop.Name, &stop.Lat, &stop.Lon, &stop.LocationType, &stop.ParentStation)
	if err != nil {
		return nil, nil
	}
	return &stop, nil
}

func (s *PostgresStore) Stops(ctx context.Context) ([]models.Stop, error) {
	rows, err := s.pool.Query(ctx, `SELECT stop_id, stop_name, lat, lon, location_type, parent_station FROM stop`)
	if err != nil {
		return nil, fmt.Errorf("querying stop: %w", err)
	}
	defer rows.Close()

	var out []models.Stop
	for rows.Next() {
		var stop models.Stop
		if err := rows.Scan(&stop.StopID, &stop.Name, &stop.Lat, &stop.Lon, &stop.LocationType, &stop.ParentStation); err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		out = append(out, stop)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Trips(ctx context.Context) ([]models.Trip, error) {
	rows, err := s.pool.Query(ctx, `SELECT trip_id, route_id, service_id, headsign FROM trip`)
	if err != nil {
		return nil, fmt.Errorf("querying trip: %w", err)
	}
	defer rows.Close()

	var out []models.Trip
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(&t.TripID, &t.RouteID, &t.ServiceID, &t.Headsign); err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Transfers(ctx context.Context) ([]models.Transfer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT from_stop_id, to_stop_id, transfer_type, min_transfer_time FROM transfer
	`)
	if err != nil {
		return nil, fmt.Errorf("querying transfer: %w", err)
	}
	defer rows.Close()

	var out []models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.FromStopID, &t.ToStopID, &t.TransferType, &t.MinTransferTime); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReplaceGraphEdges truncates the edge table and bulk-inserts the new set
// inside one transaction, matching the compiler's all-or-nothing commit
// requirement.
func (s *PostgresStore) ReplaceGraphEdges(ctx context.Context, edges []models.GraphEdge) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning graph commit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE TABLE graph_edge`); err != nil {
		return fmt.Errorf("truncating graph_edge: %w", err)
	}

	for start := 0; start < len(edges); start += batchSize {
		end := start + batchSize
		if end > len(edges) {
			end = len(edges)
		}

		batch := &pgxBatch{}
		for _, edge := range edges[start:end] {
			batch.queue(
				`INSERT INTO graph_edge (from_stop_id, to_stop_id, route_id, travel_time_seconds, is_transfer, transfer_penalty_seconds)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (from_stop_id, to_stop_id, route_id) DO UPDATE SET
				   travel_time_seconds = EXCLUDED.travel_time_seconds,
				   is_transfer = EXCLUDED.is_transfer,
				   transfer_penalty_seconds = EXCLUDED.transfer_penalty_seconds`,
				edge.FromStopID, edge.ToStopID, edge.RouteID, edge.TravelTimeSeconds, edge.IsTransfer, edge.TransferPenaltySeconds,
			)
		}
		if err := execBatch(ctx, tx, batch); err != nil {
			return fmt.Errorf("inserting graph_edge batch: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GraphEdges(ctx context.Context) ([]models.GraphEdge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT from_stop_id, to_stop_id, route_id, travel_time_seconds, is_transfer, transfer_penalty_seconds
		FROM graph_edge
	`)
	if err != nil {
		return nil, fmt.Errorf("querying graph_edge: %w", err)
	}
	defer rows.Close()

	var out []models.GraphEdge
	for rows.Next() {
		var e models.GraphEdge
		if err := rows.Scan(&e.FromStopID, &e.ToStopID, &e.RouteID, &e.TravelTimeSeconds, &e.IsTransfer, &e.TransferPenaltySeconds); err != nil {
			return nil, fmt.Errorf("scanning graph_edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReplaceStaticData truncates and repopulates the static feed tables
// inside one transaction, stamping every passthrough row with the next
// feed_version and recording the import in import_log — the same
// started/completed bookkeeping passbi_core's createImportLog/
// updateImportLog kept, adapted to this schema.
func (s *PostgresStore) ReplaceStaticData(ctx context.Context, feed *gtfsstatic.Feed) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning static import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var feedVersion int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(feed_version), 0) + 1 FROM import_log`).Scan(&feedVersion); err != nil {
		return fmt.Errorf("computing next feed_version: %w", err)
	}

	var importLogID int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO import_log (feed_version, status, started_at) VALUES ($1, 'running', now()) RETURNING id`,
		feedVersion).Scan(&importLogID); err != nil {
		return fmt.Errorf("creating import_log row: %w", err)
	}

	for _, stmt := range []string{
		`TRUNCATE TABLE stop_time, transfer, trip, route, stop, agency CASCADE`,
	} {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("truncating static tables: %w", err)
		}
	}

	for _, agency := range feed.Agencies {
		if _, err := tx.Exec(ctx,
			`INSERT INTO agency (agency_id, name, timezone, feed_version) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
			agency.AgencyID, agency.Name, agency.Timezone, feedVersion); err != nil {
			return fmt.Errorf("inserting agency: %w", err)
		}
	}

	for _, route := range feed.Routes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO route (route_id, short_name, long_name, route_type, feed_version) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
			route.RouteID, route.ShortName, route.LongName, route.RouteType, feedVersion); err != nil {
			return fmt.Errorf("inserting route: %w", err)
		}
	}

	for _, stop := range feed.Stops {
		if _, err := tx.Exec(ctx,
			`INSERT INTO stop (stop_id, stop_name, lat, lon, location_type, parent_station, feed_version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT DO NOTHING`,
			stop.StopID, stop.Name, stop.Lat, stop.Lon, stop.LocationType, stop.ParentStation, feedVersion); err != nil {
			return fmt.Errorf("inserting stop: %w", err)
		}
	}

	for _, trip := range feed.Trips {
		if _, err := tx.Exec(ctx,
			`INSERT INTO trip (trip_id, route_id, service_id, headsign, feed_version) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
			trip.TripID, trip.RouteID, trip.ServiceID, trip.Headsign, feedVersion); err != nil {
			return fmt.Errorf("inserting trip: %w", err)
		}
	}

	sortedStopTimes := make([]models.StopTime, len(feed.StopTimes))
	copy(sortedStopTimes, feed.StopTimes)
	sort.Slice(sortedStopTimes, func(i, j int) bool {
		if sortedStopTimes[i].TripID != sortedStopTimes[j].TripID {
			return sortedStopTimes[i].TripID < sortedStopTimes[j].TripID
		}
		return sortedStopTimes[i].StopSequence < sortedStopTimes[j].StopSequence
	})

	for start := 0; start < len(sortedStopTimes); start += batchSize {
		end := start + batchSize
		if end > len(sortedStopTimes) {
			end = len(sortedStopTimes)
		}
		batch := &pgxBatch{}
		for _, st := range sortedStopTimes[start:end] {
			batch.queue(
				`INSERT INTO stop_time (trip_id, stop_id, stop_sequence, arrival_time, departure_time, feed_version)
				 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`,
				st.TripID, st.StopID, st.StopSequence, st.ArrivalTime, st.DepartureTime, feedVersion,
			)
		}
		if err := execBatch(ctx, tx, batch); err != nil {
			return fmt.Errorf("inserting stop_time batch: %w", err)
		}
	}

	for _, transfer := range feed.Transfers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO transfer (from_stop_id, to_stop_id, transfer_type, min_transfer_time, feed_version)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
			transfer.FromStopID, transfer.ToStopID, transfer.TransferType, transfer.MinTransferTime, feedVersion); err != nil {
			return fmt.Errorf("inserting transfer: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE import_log SET status = 'success', completed_at = now(), stops_count = $1, routes_count = $2 WHERE id = $3`,
		len(feed.Stops), len(feed.Routes), importLogID); err != nil {
		return fmt.Errorf("updating import_log: %w", err)
	}

	return tx.Commit(ctx)
}
