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

// PostFilter narrows List results for the list and calendar views.
type PostFilter struct {
	Status    string
	From      time.Time
	To        time.Time
	AccountID int64
}

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	List(ctx context.Context, userID int64, filter PostFilter) ([]*models.ScheduledPost, error)
	ListDueIDs(ctx context.Context, now time.Time) ([]int64, error)
	ClaimPending(ctx context.Context, id int64) (bool, error)
	ClaimFailed(ctx context.Context, id int64) (bool, error)
	Reschedule(ctx context.Context, id int64, scheduledAt time.Time) (bool, error)
	Finish(ctx context.Context, id int64, status, errorMessage string, publishedAt *time.Time, results []models.TargetResult) error
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, album_id, caption, scheduled_at, media_specs, target_ids, status, published_at, error_message, target_results, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (user_id, album_id, caption, scheduled_at, media_specs, target_ids, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	specs, err := json.Marshal(post.MediaSpecs)
	if err != nil {
		return 0, err
	}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.UserID, post.AlbumID, post.Caption, post.ScheduledAt, specs, post.TargetIDs, post.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.UserID, post.AlbumID, post.Caption, post.ScheduledAt, specs, post.TargetIDs, post.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func scanPost(row interface{ Scan(...interface{}) error }) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	var specs, results []byte

	err := row.Scan(&post.ID, &post.UserID, &post.AlbumID, &post.Caption, &post.ScheduledAt,
		&specs, &post.TargetIDs, &post.Status, &post.PublishedAt, &post.ErrorMessage,
		&results, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(specs, &post.MediaSpecs); err != nil {
		return nil, fmt.Errorf("decode media_specs: %w", err)
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &post.TargetResults); err != nil {
			return nil, fmt.Errorf("decode target_results: %w", err)
		}
	}

	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, userID int64, filter PostFilter) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND scheduled_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND scheduled_at < $%d", len(args))
	}
	if filter.AccountID != 0 {
		args = append(args, filter.AccountID)
		query += fmt.Sprintf(" AND $%d = ANY(target_ids)", len(args))
	}
	query += ` ORDER BY scheduled_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListDueIDs(ctx context.Context, now time.Time) ([]int64, error) {
	query := `SELECT id FROM scheduled_posts WHERE status = $1 AND scheduled_at <= $2 ORDER BY scheduled_at`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPending, now)
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

// ClaimPending atomically moves a pending post to publishing. Exactly one of
// any number of concurrent callers observes true; the rest see the post as
// already claimed and must skip it.
func (r *postRepository) ClaimPending(ctx context.Context, id int64) (bool, error) {
	return r.claim(ctx, id, models.PostStatusPending)
}

// ClaimFailed is the operator reprocess path: failed -> publishing.
func (r *postRepository) ClaimFailed(ctx context.Context, id int64) (bool, error) {
	return r.claim(ctx, id, models.PostStatusFailed)
}

func (r *postRepository) claim(ctx context.Context, id int64, fromStatus string) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), id, fromStatus)
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

// Reschedule is a compare-and-set on scheduled_at: the write lands only if
// the post is still pending at the moment of the update. A concurrent claim
// wins the race and the caller gets false, never a silently lost update.
func (r *postRepository) Reschedule(ctx context.Context, id int64, scheduledAt time.Time) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET scheduled_at = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, scheduledAt, time.Now(), id, models.PostStatusPending)
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

// Finish writes the outcome of an execution attempt. target_results is fully
// replaced, never appended. Guarded on status = publishing so nothing but the
// claim owner can write the terminal state.
func (r *postRepository) Finish(ctx context.Context, id int64, status, errorMessage string, publishedAt *time.Time, results []models.TargetResult) error {
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return err
	}

	query := `
		UPDATE scheduled_posts
		SET status = $1, error_message = $2, published_at = $3, target_results = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`
	result, err := r.db.ExecContext(ctx, query, status, errorMessage, publishedAt, resultsJSON, time.Now(), id, models.PostStatusPublishing)
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
		return fmt.Errorf("post %d not in publishing state", id)
	}
	return nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := `SELECT 1 FROM scheduled_posts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}
