package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

// RecordFetch logs the outcome of one usage fetch. A missing ID or
// timestamp is filled in on rec.
func (db *DB) RecordFetch(ctx context.Context, rec *models.FetchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	query := `
		INSERT INTO fetches (
			id, timestamp, time_range, granularity, frames,
			retrieved, used, peak_watts, latest_watts, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		rec.ID,
		rec.Timestamp.UTC().Format(timestampLayout),
		string(rec.Range),
		string(rec.Granularity),
		rec.Frames,
		rec.Retrieved,
		rec.Used,
		rec.PeakWatts,
		rec.LatestWatts,
		nullString(rec.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}
	return nil
}

// RecentFetches returns the newest log entries first.
func (db *DB) RecentFetches(ctx context.Context, limit int) ([]models.FetchRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	query := `
		SELECT id, timestamp, time_range, granularity, frames,
			   retrieved, used, peak_watts, latest_watts, error
		FROM fetches
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent fetches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.FetchRecord
	for rows.Next() {
		var rec models.FetchRecord
		var ts string
		var timeRange, granularity string
		var errStr sql.NullString

		err := rows.Scan(
			&rec.ID,
			&ts,
			&timeRange,
			&granularity,
			&rec.Frames,
			&rec.Retrieved,
			&rec.Used,
			&rec.PeakWatts,
			&rec.LatestWatts,
			&errStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fetch: %w", err)
		}

		rec.Timestamp = parseTimestamp(ts)
		rec.Range = models.TimeRange(timeRange)
		rec.Granularity = models.Granularity(granularity)
		rec.Error = errStr.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// PeakByRange returns the highest peak seen by successful fetches of each
// range.
func (db *DB) PeakByRange(ctx context.Context) (map[models.TimeRange]float64, error) {
	query := `
		SELECT time_range, MAX(peak_watts)
		FROM fetches
		WHERE error IS NULL
		GROUP BY time_range
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query peaks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	peaks := make(map[models.TimeRange]float64)
	for rows.Next() {
		var timeRange string
		var peak float64
		if err := rows.Scan(&timeRange, &peak); err != nil {
			return nil, fmt.Errorf("failed to scan peak: %w", err)
		}
		peaks[models.TimeRange(timeRange)] = peak
	}

	return peaks, rows.Err()
}

// FetchCounts returns how many fetches succeeded and failed.
func (db *DB) FetchCounts(ctx context.Context) (succeeded, failed int, err error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN error IS NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM fetches
	`
	if err := db.QueryRowContext(ctx, query).Scan(&succeeded, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count fetches: %w", err)
	}
	return succeeded, failed, nil
}

// PruneFetches deletes entries older than olderThan and returns how many
// were removed.
func (db *DB) PruneFetches(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(timestampLayout)

	result, err := db.ExecContext(ctx, "DELETE FROM fetches WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune fetches: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned fetches: %w", err)
	}
	if n > 0 {
		logger.Debug("Pruned fetch log", "removed", n)
	}
	return n, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02T15:04:05Z"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
