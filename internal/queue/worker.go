package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/campfirehq/socialqueue/internal/models"
	"github.com/campfirehq/socialqueue/internal/service"
	"github.com/campfirehq/socialqueue/internal/transfer"
	"github.com/hibiken/asynq"
)

// HandleSchedulePostTask is the asynq entry point. Execution failure is not
// returned to asynq: the record itself carries the failed state and is only
// re-attempted by an explicit operator reprocess.
func (q *Queue) HandleSchedulePostTask(ctx context.Context, task *asynq.Task) error {
	var payload SchedulePostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if _, err := q.ExecutePost(ctx, payload.PostID); err != nil {
		slog.Info(err.Error())
	}
	return nil
}

// ExecutePost claims one pending record and runs it to a terminal state. If
// another invocation already holds the claim, the current record is returned
// untouched; the winner's outcome will land in the store.
func (q *Queue) ExecutePost(ctx context.Context, postID int64) (*models.ScheduledPost, error) {
	claimed, err := q.pr.ClaimPending(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return q.pr.GetByID(ctx, postID)
	}
	return q.execute(ctx, postID)
}

// Reprocess is the operator-triggered re-attempt of a failed record. It
// re-validates and re-executes the same row; a record in any other state
// yields ErrConflict.
func (q *Queue) Reprocess(ctx context.Context, postID int64) (*models.ScheduledPost, error) {
	post, err := q.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, service.ErrNotFound
	}

	claimed, err := q.pr.ClaimFailed(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, service.ErrConflict
	}
	return q.execute(ctx, postID)
}

// execute runs a record the caller has already claimed. Constraints are
// re-checked first because accounts may have disconnected or been
// reclassified since submission; a failure there finishes the record without
// contacting any connector. Targets are attempted in target_ids order and
// one target's failure never aborts its siblings.
func (q *Queue) execute(ctx context.Context, postID int64) (*models.ScheduledPost, error) {
	post, err := q.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("post %d disappeared after claim", postID)
	}

	targets, err := q.resolveTargets(ctx, post)
	if err == nil {
		err = service.ValidateComposition(targets, post.MediaSpecs)
	}
	if err != nil {
		if finishErr := q.pr.Finish(ctx, postID, models.PostStatusFailed, err.Error(), nil, nil); finishErr != nil {
			return nil, finishErr
		}
		return q.pr.GetByID(ctx, postID)
	}

	results := make([]models.TargetResult, 0, len(targets))
	var errs []string
	for _, acc := range targets {
		result := models.TargetResult{TargetID: acc.ID, Platform: acc.Platform, OK: true}

		if err := q.publishTo(ctx, acc, post); err != nil {
			slog.Info(err.Error())
			result.OK = false
			result.Error = err.Error()
			errs = append(errs, fmt.Sprintf("account %d (%s): %v", acc.ID, acc.Platform, err))
		}
		results = append(results, result)
	}

	// A post counts as delivered only when every requested destination got
	// it; a mixed outcome is an actionable failure, with the full per-target
	// breakdown kept for the operator.
	if len(errs) == 0 {
		now := q.now()
		err = q.pr.Finish(ctx, postID, models.PostStatusPublished, "", &now, results)
	} else {
		err = q.pr.Finish(ctx, postID, models.PostStatusFailed, strings.Join(errs, "; "), nil, results)
	}
	if err != nil {
		return nil, err
	}

	return q.pr.GetByID(ctx, postID)
}

func (q *Queue) resolveTargets(ctx context.Context, post *models.ScheduledPost) ([]*models.SocialAccount, error) {
	targets := make([]*models.SocialAccount, 0, len(post.TargetIDs))
	for _, id := range post.TargetIDs {
		acc, err := q.ac.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			return nil, fmt.Errorf("%w: account %d is no longer connected", service.ErrValidation, id)
		}
		if acc.AccountStatus == models.AccountStatusDisconnected {
			return nil, fmt.Errorf("%w: account %d (%s) is disconnected", service.ErrValidation, id, acc.AccountUsername)
		}
		targets = append(targets, acc)
	}
	return targets, nil
}

func (q *Queue) publishTo(ctx context.Context, acc *models.SocialAccount, post *models.ScheduledPost) error {
	switch acc.Platform {
	case models.PlatformInstagram:
		return q.ig.Publish(ctx, acc, post.Caption, post.MediaSpecs)
	case models.PlatformFacebook:
		return q.fb.Publish(ctx, acc, post.Caption, post.MediaSpecs)
	default:
		return fmt.Errorf("unsupported platform %q", acc.Platform)
	}
}

// RunDue claims and executes every currently-due pending record. Records run
// concurrently behind a semaphore with no ordering guarantee between them;
// targets within one record stay sequential inside execute.
func (q *Queue) RunDue(ctx context.Context) (transfer.RunSummary, error) {
	ids, err := q.pr.ListDueIDs(ctx, q.now())
	if err != nil {
		return transfer.RunSummary{}, err
	}

	var mu sync.Mutex
	var summary transfer.RunSummary

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 10)

	for _, id := range ids {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(id int64) {
			defer wg.Done()
			defer func() { <-semaphore }()

			claimed, err := q.pr.ClaimPending(ctx, id)
			if err != nil || !claimed {
				if err != nil {
					slog.Info(err.Error())
				}
				return
			}

			post, err := q.execute(ctx, id)
			if err != nil {
				slog.Info(err.Error())
				return
			}

			mu.Lock()
			summary.Processed++
			if post.Status == models.PostStatusPublished {
				summary.Published++
			} else {
				summary.Failed++
			}
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return summary, nil
}

// RunAllDue is the manual "process queue now" action: one sweep over both
// the current representation and the legacy queue, run in parallel.
func (q *Queue) RunAllDue(ctx context.Context) (transfer.RunSummary, error) {
	var wg sync.WaitGroup
	var current, legacy transfer.RunSummary
	var currentErr, legacyErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentErr = q.RunDue(ctx)
	}()
	go func() {
		defer wg.Done()
		legacy, legacyErr = q.RunDueLegacy(ctx)
	}()
	wg.Wait()

	if currentErr != nil {
		return current, currentErr
	}
	if legacyErr != nil {
		return current, legacyErr
	}

	return transfer.RunSummary{
		Processed: current.Processed + legacy.Processed,
		Published: current.Published + legacy.Published,
		Failed:    current.Failed + legacy.Failed,
	}, nil
}
