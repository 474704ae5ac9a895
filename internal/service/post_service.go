package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campfirehq/socialqueue/internal/models"
	"github.com/campfirehq/socialqueue/internal/repository"
	"github.com/campfirehq/socialqueue/internal/transfer"
)

// QueueExecutor is the queue processor's single-record routine. The immediate
// submission path runs it synchronously so the caller gets the terminal
// outcome back; satisfied by *queue.Queue.
type QueueExecutor interface {
	ExecutePost(ctx context.Context, postID int64) (*models.ScheduledPost, error)
}

type PostService interface {
	Submit(ctx context.Context, userID int64, req *transfer.SubmitRequest) (*models.ScheduledPost, time.Duration, error)
	List(ctx context.Context, userID int64, filter repository.PostFilter) ([]*models.ScheduledPost, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.ScheduledPost, error)
	Reschedule(ctx context.Context, userID, postID int64, scheduledAt time.Time) (*models.ScheduledPost, error)
}

type postService struct {
	pr   repository.PostRepository
	ac   repository.SocialAccountRepository
	exec QueueExecutor
	now  func() time.Time
}

func NewPostService(pr repository.PostRepository, ac repository.SocialAccountRepository, exec QueueExecutor) PostService {
	return &postService{pr: pr, ac: ac, exec: exec, now: time.Now}
}

// Submit turns a validated composition into exactly one pending record. A
// scheduled time in the past (or none at all) publishes immediately and the
// returned post carries the execution outcome; a future time parks the record
// for the queue processor and the returned delay is the enqueue offset.
// Validation failures create no record.
func (s *postService) Submit(ctx context.Context, userID int64, req *transfer.SubmitRequest) (*models.ScheduledPost, time.Duration, error) {
	if req == nil {
		return nil, 0, fmt.Errorf("%w: empty submission", ErrValidation)
	}
	if len(req.TargetIDs) == 0 {
		return nil, 0, fmt.Errorf("%w: no target accounts selected", ErrValidation)
	}

	targets, err := s.resolveTargets(ctx, userID, req.TargetIDs)
	if err != nil {
		return nil, 0, err
	}

	if err := ValidateComposition(targets, req.MediaSpecs); err != nil {
		return nil, 0, err
	}

	scheduledAt := s.now()
	if req.ScheduledAt != "" {
		scheduledAt, err = time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: invalid scheduled_at: %v", ErrValidation, err)
		}
	}

	post := &models.ScheduledPost{
		UserID:      userID,
		AlbumID:     req.AlbumID,
		Caption:     req.Caption,
		ScheduledAt: scheduledAt,
		MediaSpecs:  req.MediaSpecs,
		TargetIDs:   append([]int64(nil), req.TargetIDs...),
		Status:      models.PostStatusPending,
	}

	postID, err := s.pr.Create(ctx, nil, post)
	if err != nil {
		return nil, 0, fmt.Errorf("error creating post: %w", err)
	}

	delay := time.Until(scheduledAt)
	if delay <= 0 {
		executed, err := s.exec.ExecutePost(ctx, postID)
		if err != nil {
			return nil, 0, fmt.Errorf("error executing post %d: %w", postID, err)
		}
		return executed, 0, nil
	}

	created, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	return created, delay, nil
}

func (s *postService) resolveTargets(ctx context.Context, userID int64, targetIDs []int64) ([]*models.SocialAccount, error) {
	targets := make([]*models.SocialAccount, 0, len(targetIDs))
	for _, id := range targetIDs {
		acc, err := s.ac.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("error resolving account %d: %w", id, err)
		}
		if acc == nil || acc.UserID != userID {
			return nil, fmt.Errorf("%w: account %d is not connected", ErrValidation, id)
		}
		targets = append(targets, acc)
	}
	return targets, nil
}

func (s *postService) List(ctx context.Context, userID int64, filter repository.PostFilter) ([]*models.ScheduledPost, error) {
	posts, err := s.pr.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.ScheduledPost, error) {
	isOwner, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		return nil, ErrNotFound
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// Reschedule moves a pending post to a new time. The write is a
// compare-and-set against the pending status: if the queue processor claimed
// the record between the operator's read and this call, the update is
// rejected with ErrConflict instead of silently overwriting the claim.
func (s *postService) Reschedule(ctx context.Context, userID, postID int64, scheduledAt time.Time) (*models.ScheduledPost, error) {
	isOwner, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		return nil, ErrNotFound
	}

	moved, err := s.pr.Reschedule(ctx, postID, scheduledAt)
	if err != nil {
		return nil, fmt.Errorf("error rescheduling post %d: %w", postID, err)
	}
	if !moved {
		slog.Info("reschedule rejected, post already left pending", "post_id", postID)
		return nil, ErrConflict
	}

	return s.pr.GetByID(ctx, postID)
}

// CombineDayTime is the calendar drag-and-drop helper: the dropped-on day
// supplies the date, the post being moved keeps its time-of-day.
func CombineDayTime(day time.Time, existing time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		existing.Hour(), existing.Minute(), existing.Second(), existing.Nanosecond(),
		existing.Location())
}
