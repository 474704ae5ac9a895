package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/campfirehq/socialqueue/internal/models"
)

// LegacyJobRepository reads and advances the pre-migration per-account job
// rows. No new rows are ever created here; submissions only produce
// scheduled_posts.
type LegacyJobRepository interface {
	GetByID(ctx context.Context, id int64) (*models.LegacyJob, error)
	List(ctx context.Context) ([]*models.LegacyJob, error)
	ListDueIDs(ctx context.Context, now time.Time) ([]int64, error)
	ClaimQueued(ctx context.Context, id int64) (bool, error)
	Finish(ctx context.Context, id int64, status string, payload json.RawMessage, errorMessage string) error
}

type legacyJobRepository struct {
	db *sql.DB
}

func NewLegacyJobRepository(db *sql.DB) LegacyJobRepository {
	return &legacyJobRepository{db: db}
}

const legacyColumns = `id, target_id, caption, media_specs, status, run_at, result_payload, error_message, created_at, updated_at`

func scanLegacyJob(row interface{ Scan(...interface{}) error }) (*models.LegacyJob, error) {
	var job models.LegacyJob
	var specs []byte
	var payload []byte

	err := row.Scan(&job.ID, &job.TargetID, &job.Caption, &specs, &job.Status, &job.RunAt,
		&payload, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &job.MediaSpecs); err != nil {
			return nil, fmt.Errorf("decode media_specs: %w", err)
		}
	}
	job.ResultPayload = payload

	return &job, nil
}

func (r *legacyJobRepository) GetByID(ctx context.Context, id int64) (*models.LegacyJob, error) {
	query := `SELECT ` + legacyColumns + ` FROM legacy_jobs WHERE id = $1`
	job, err := scanLegacyJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return job, nil
}

func (r *legacyJobRepository) List(ctx context.Context) ([]*models.LegacyJob, error) {
	query := `SELECT ` + legacyColumns + ` FROM legacy_jobs ORDER BY run_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.LegacyJob
	for rows.Next() {
		job, err := scanLegacyJob(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return jobs, nil
}

func (r *legacyJobRepository) ListDueIDs(ctx context.Context, now time.Time) ([]int64, error) {
	query := `SELECT id FROM legacy_jobs WHERE status = $1 AND run_at <= $2 ORDER BY run_at`

	rows, err := r.db.QueryContext(ctx, query, models.LegacyStatusQueued, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return ids, nil
}

// ClaimQueued is the legacy counterpart of the post claim: queued -> running,
// won by at most one concurrent caller.
func (r *legacyJobRepository) ClaimQueued(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE legacy_jobs
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.LegacyStatusRunning, time.Now(), id, models.LegacyStatusQueued)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *legacyJobRepository) Finish(ctx context.Context, id int64, status string, payload json.RawMessage, errorMessage string) error {
	query := `
		UPDATE legacy_jobs
		SET status = $1, result_payload = $2, error_message = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	result, err := r.db.ExecContext(ctx, query, status, []byte(payload), errorMessage, time.Now(), id, models.LegacyStatusRunning)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return fmt.Errorf("legacy job %d not in running state", id)
	}
	return nil
}
