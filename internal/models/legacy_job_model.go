package models

import (
	"encoding/json"
	"time"
)

// LegacyJob is the older one-job-per-account representation kept during the
// migration window. Its lifecycle is independent of ScheduledPost; the two
// are only reconciled into one operator-facing view.
type LegacyJob struct {
	ID            int64           `db:"id" json:"id"`
	TargetID      int64           `db:"target_id" json:"target_id"`
	Caption       string          `db:"caption" json:"caption"`
	MediaSpecs    []MediaSpec     `db:"media_specs" json:"media_specs"`
	Status        string          `db:"status" json:"status"`
	RunAt         time.Time       `db:"run_at" json:"run_at"`
	ResultPayload json.RawMessage `db:"result_payload" json:"result_payload,omitempty"`
	ErrorMessage  string          `db:"error_message" json:"error_message,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

const (
	LegacyStatusQueued    = "queued"
	LegacyStatusRunning   = "running"
	LegacyStatusPublished = "published"
	LegacyStatusFailed    = "failed"
)
