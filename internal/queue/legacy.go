package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/campfirehq/socialqueue/internal/models"
	"github.com/campfirehq/socialqueue/internal/repository"
	"github.com/campfirehq/socialqueue/internal/transfer"
)

// Legacy jobs predate scheduled posts: one row per destination account.
// They are executed here with the same connectors and reconciled into the
// merged operator view, but never migrated — submissions only ever create
// scheduled_posts rows.

// mapLegacyStatus translates the legacy lifecycle onto the scheduled-post
// one for display.
func mapLegacyStatus(status string) string {
	switch status {
	case models.LegacyStatusQueued:
		return models.PostStatusPending
	case models.LegacyStatusRunning:
		return models.PostStatusPublishing
	case models.LegacyStatusPublished:
		return models.PostStatusPublished
	case models.LegacyStatusFailed:
		return models.PostStatusFailed
	default:
		return status
	}
}

// RunDueLegacy claims and executes every due queued legacy job.
func (q *Queue) RunDueLegacy(ctx context.Context) (transfer.RunSummary, error) {
	ids, err := q.lr.ListDueIDs(ctx, q.now())
	if err != nil {
		return transfer.RunSummary{}, err
	}

	var summary transfer.RunSummary
	for _, id := range ids {
		claimed, err := q.lr.ClaimQueued(ctx, id)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		if !claimed {
			continue
		}

		summary.Processed++
		if err := q.executeLegacy(ctx, id); err != nil {
			slog.Info(err.Error())
			summary.Failed++
		} else {
			summary.Published++
		}
	}

	return summary, nil
}

func (q *Queue) executeLegacy(ctx context.Context, jobID int64) error {
	job, err := q.lr.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("legacy job %d disappeared after claim", jobID)
	}

	acc, err := q.ac.GetByID(ctx, job.TargetID)
	if err != nil {
		return err
	}
	if acc == nil || acc.AccountStatus == models.AccountStatusDisconnected {
		msg := fmt.Sprintf("account %d is no longer connected", job.TargetID)
		if finishErr := q.lr.Finish(ctx, jobID, models.LegacyStatusFailed, nil, msg); finishErr != nil {
			return finishErr
		}
		return fmt.Errorf("legacy job %d: %s", jobID, msg)
	}

	if err := q.publishTo(ctx, acc, &models.ScheduledPost{Caption: job.Caption, MediaSpecs: job.MediaSpecs}); err != nil {
		if finishErr := q.lr.Finish(ctx, jobID, models.LegacyStatusFailed, nil, err.Error()); finishErr != nil {
			return finishErr
		}
		return fmt.Errorf("legacy job %d: %w", jobID, err)
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"target_id":    job.TargetID,
		"published_at": q.now(),
	})
	return q.lr.Finish(ctx, jobID, models.LegacyStatusPublished, payload, "")
}

// MergedJobs is the single operator-facing read view over both
// representations, sorted by run time.
func (q *Queue) MergedJobs(ctx context.Context, userID int64) ([]transfer.JobView, error) {
	posts, err := q.pr.List(ctx, userID, repository.PostFilter{})
	if err != nil {
		return nil, err
	}

	jobs, err := q.lr.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]transfer.JobView, 0, len(posts)+len(jobs))
	for _, post := range posts {
		views = append(views, transfer.JobView{
			ID:            post.ID,
			Source:        transfer.JobSourceScheduled,
			Caption:       post.Caption,
			Status:        post.Status,
			RunAt:         post.ScheduledAt,
			TargetIDs:     post.TargetIDs,
			ErrorMessage:  post.ErrorMessage,
			TargetResults: post.TargetResults,
		})
	}

	for _, job := range jobs {
		acc, err := q.ac.GetByID(ctx, job.TargetID)
		if err != nil {
			return nil, err
		}
		if acc == nil || acc.UserID != userID {
			continue
		}

		views = append(views, transfer.JobView{
			ID:           job.ID,
			Source:       transfer.JobSourceLegacy,
			Caption:      job.Caption,
			Status:       mapLegacyStatus(job.Status),
			RunAt:        job.RunAt,
			TargetIDs:    []int64{job.TargetID},
			ErrorMessage: job.ErrorMessage,
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].RunAt.Before(views[j].RunAt)
	})

	return views, nil
}
