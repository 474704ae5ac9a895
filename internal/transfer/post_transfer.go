package transfer

import (
	"time"

	"github.com/campfirehq/socialqueue/internal/models"
)

// SubmitRequest is a finished composition handed over by the composer. The
// media list order is the publish order.
type SubmitRequest struct {
	AlbumID     int64              `json:"album_id"`
	TargetIDs   []int64            `json:"target_ids"`
	Caption     string             `json:"caption"`
	MediaSpecs  []models.MediaSpec `json:"media_specs"`
	ScheduledAt string             `json:"scheduled_at,omitempty"`
}

type SubmitResponse struct {
	OK            bool                  `json:"ok"`
	Post          *models.ScheduledPost `json:"post,omitempty"`
	JobCount      int                   `json:"job_count,omitempty"`
	TargetResults []models.TargetResult `json:"per_target_results,omitempty"`
	Error         string                `json:"error,omitempty"`
}

// RescheduleRequest carries either a full timestamp or, for the calendar
// drag-and-drop path, just the target day; the post's existing time-of-day is
// kept when only the day is given.
type RescheduleRequest struct {
	ScheduledAt string `json:"scheduled_at,omitempty"`
	Day         string `json:"day,omitempty"`
}

// RunSummary is the outcome of one manual or periodic queue sweep.
type RunSummary struct {
	Processed int `json:"processed"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// JobView is the merged operator-facing row covering both the current
// scheduled_posts representation and legacy per-account jobs. Legacy statuses
// are mapped onto the scheduled-post lifecycle for display only.
type JobView struct {
	ID            int64                 `json:"id"`
	Source        string                `json:"source"`
	Caption       string                `json:"caption"`
	Status        string                `json:"status"`
	RunAt         time.Time             `json:"run_at"`
	TargetIDs     []int64               `json:"target_ids"`
	ErrorMessage  string                `json:"error_message,omitempty"`
	TargetResults []models.TargetResult `json:"per_target_results,omitempty"`
}

const (
	JobSourceScheduled = "scheduled_post"
	JobSourceLegacy    = "legacy_job"
)
