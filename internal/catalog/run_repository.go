package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tracklab/trackheat/internal/models"
	"github.com/tracklab/trackheat/internal/spatial"
)

// RunSummary is one row of run history.
type RunSummary struct {
	ID         int64          `json:"id"`
	StartedAt  string         `json:"startedAt"`
	FinishedAt string         `json:"finishedAt,omitempty"`
	Bounds     spatial.Bounds `json:"bounds"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`

	FilesSeen      int64 `json:"filesSeen"`
	TracksDecoded  int64 `json:"tracksDecoded"`
	DecodeFailures int64 `json:"decodeFailures"`
	PointsTotal    int64 `json:"pointsTotal"`
	PointsDropped  int64 `json:"pointsDropped"`
	FramesWritten  int64 `json:"framesWritten"`
}

// BeginRun records the start of a rendering run and returns its id.
func (c *Catalog) BeginRun(bounds spatial.Bounds, width, height int) (int64, error) {
	res, err := c.db.Exec(`
		INSERT INTO runs (started_at, min_lat, min_lon, max_lat, max_lon, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon,
		width, height,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// RecordFile stores the ingest outcome of one input file.
func (c *Catalog) RecordFile(runID int64, rec models.IngestRecord) error {
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}
	_, err := c.db.Exec(`
		INSERT INTO files (run_id, path, status, points, meters, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, rec.Path, rec.Status, rec.Points, rec.Meters, errText,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file record: %w", err)
	}
	return nil
}

// FinishRun stores the final counters for a run.
func (c *Catalog) FinishRun(runID int64, stats models.RunStatsSnapshot) error {
	_, err := c.db.Exec(`
		UPDATE runs SET
			finished_at = ?,
			files_seen = ?, tracks_decoded = ?, decode_failures = ?,
			points_total = ?, points_dropped = ?, frames_written = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		stats.FilesSeen, stats.TracksDecoded, stats.DecodeFailures,
		stats.PointsTotal, stats.PointsDropped, stats.FramesWritten,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (c *Catalog) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.Query(`
		SELECT id, started_at, COALESCE(finished_at, ''),
			min_lat, min_lon, max_lat, max_lon, width, height,
			files_seen, tracks_decoded, decode_failures,
			points_total, points_dropped, frames_written
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		err := rows.Scan(
			&r.ID, &r.StartedAt, &r.FinishedAt,
			&r.Bounds.MinLat, &r.Bounds.MinLon, &r.Bounds.MaxLat, &r.Bounds.MaxLon,
			&r.Width, &r.Height,
			&r.FilesSeen, &r.TracksDecoded, &r.DecodeFailures,
			&r.PointsTotal, &r.PointsDropped, &r.FramesWritten,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListFiles returns the ingest records of one run.
func (c *Catalog) ListFiles(runID int64) ([]models.IngestRecord, error) {
	rows, err := c.db.Query(`
		SELECT path, status, points, meters, COALESCE(error, '')
		FROM files WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var recs []models.IngestRecord
	for rows.Next() {
		var rec models.IngestRecord
		if err := rows.Scan(&rec.Path, &rec.Status, &rec.Points, &rec.Meters, &rec.Error); err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
