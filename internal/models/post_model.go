package models

import (
	"time"

	"github.com/lib/pq"
)

// MediaSpec is one entry of a post's ordered media list. Slice order is the
// publish order on every platform and is preserved end-to-end.
type MediaSpec struct {
	MediaID  int64  `json:"media_id"`
	CropMode string `json:"crop_mode"`
	AltText  string `json:"alt_text"`
}

// TargetResult records the outcome of one destination's publish attempt.
type TargetResult struct {
	TargetID int64  `json:"target_id"`
	Platform string `json:"platform"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

type ScheduledPost struct {
	ID            int64          `db:"id" json:"id"`
	UserID        int64          `db:"user_id" json:"user_id"`
	AlbumID       int64          `db:"album_id" json:"album_id"`
	Caption       string         `db:"caption" json:"caption"`
	ScheduledAt   time.Time      `db:"scheduled_at" json:"scheduled_at"`
	MediaSpecs    []MediaSpec    `db:"media_specs" json:"media_specs"`
	TargetIDs     pq.Int64Array  `db:"target_ids" json:"target_ids"`
	Status        string         `db:"status" json:"status"`
	PublishedAt   *time.Time     `db:"published_at" json:"published_at,omitempty"`
	ErrorMessage  string         `db:"error_message" json:"error_message,omitempty"`
	TargetResults []TargetResult `db:"target_results" json:"target_results"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	AlbumID      int64     `db:"album_id" json:"album_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	FileType     string    `db:"file_type" json:"file_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	FileURL      string    `db:"file_url" json:"file_url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Lifecycle states of a ScheduledPost. Transitions are monotonic:
// pending -> publishing -> published | failed. Pending is never re-entered;
// a failed post is only re-attempted by an explicit operator reprocess.
const (
	PostStatusPending    = "pending"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

// IsTerminal reports whether no further automatic transition occurs.
func IsTerminal(status string) bool {
	return status == PostStatusPublished || status == PostStatusFailed
}
