package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/campfirehq/socialqueue/internal/models"
	"github.com/campfirehq/socialqueue/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLegacyRepo struct {
	mu   sync.Mutex
	jobs map[int64]*models.LegacyJob
}

func newMemLegacyRepo(jobs ...*models.LegacyJob) *memLegacyRepo {
	r := &memLegacyRepo{jobs: make(map[int64]*models.LegacyJob)}
	for _, job := range jobs {
		clone := *job
		r.jobs[clone.ID] = &clone
	}
	return r
}

func (r *memLegacyRepo) GetByID(ctx context.Context, id int64) (*models.LegacyJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	clone := *job
	return &clone, nil
}

func (r *memLegacyRepo) List(ctx context.Context) ([]*models.LegacyJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var jobs []*models.LegacyJob
	for _, job := range r.jobs {
		clone := *job
		jobs = append(jobs, &clone)
	}
	return jobs, nil
}

func (r *memLegacyRepo) ListDueIDs(ctx context.Context, now time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, job := range r.jobs {
		if job.Status == models.LegacyStatusQueued && !job.RunAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memLegacyRepo) ClaimQueued(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != models.LegacyStatusQueued {
		return false, nil
	}
	job.Status = models.LegacyStatusRunning
	return true, nil
}

func (r *memLegacyRepo) Finish(ctx context.Context, id int64, status string, payload json.RawMessage, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[id]
	job.Status = status
	job.ResultPayload = payload
	job.ErrorMessage = errorMessage
	return nil
}

func TestMapLegacyStatus(t *testing.T) {
	assert.Equal(t, models.PostStatusPending, mapLegacyStatus(models.LegacyStatusQueued))
	assert.Equal(t, models.PostStatusPublishing, mapLegacyStatus(models.LegacyStatusRunning))
	assert.Equal(t, models.PostStatusPublished, mapLegacyStatus(models.LegacyStatusPublished))
	assert.Equal(t, models.PostStatusFailed, mapLegacyStatus(models.LegacyStatusFailed))
}

func TestRunDueLegacy(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	lr := newMemLegacyRepo(
		&models.LegacyJob{ID: 1, TargetID: 2, Caption: "old one", MediaSpecs: testSpecs(1), Status: models.LegacyStatusQueued, RunAt: past},
		&models.LegacyJob{ID: 2, TargetID: 3, Caption: "old two", MediaSpecs: testSpecs(1), Status: models.LegacyStatusQueued, RunAt: past},
		&models.LegacyJob{ID: 3, TargetID: 2, Caption: "not due", MediaSpecs: testSpecs(1), Status: models.LegacyStatusQueued, RunAt: time.Now().Add(time.Hour)},
	)

	pub := &fakePublisher{fail: map[int64]error{3: errors.New("gone")}}
	q := testQueue(newMemPostRepo(), lr, connectedAccounts(), pub)

	summary, err := q.RunDueLegacy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, transfer.RunSummary{Processed: 2, Published: 1, Failed: 1}, summary)

	ok, _ := lr.GetByID(context.Background(), 1)
	failed, _ := lr.GetByID(context.Background(), 2)
	notDue, _ := lr.GetByID(context.Background(), 3)
	assert.Equal(t, models.LegacyStatusPublished, ok.Status)
	assert.NotEmpty(t, ok.ResultPayload)
	assert.Equal(t, models.LegacyStatusFailed, failed.Status)
	assert.Equal(t, "gone", failed.ErrorMessage)
	assert.Equal(t, models.LegacyStatusQueued, notDue.Status)
}

func TestMergedJobsReadView(t *testing.T) {
	pr := newMemPostRepo()
	postID, err := pr.Create(context.Background(), nil, &models.ScheduledPost{
		UserID:      7,
		Caption:     "new style",
		ScheduledAt: time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC),
		MediaSpecs:  testSpecs(1),
		TargetIDs:   []int64{1},
		Status:      models.PostStatusPending,
	})
	require.NoError(t, err)

	lr := newMemLegacyRepo(
		&models.LegacyJob{ID: 11, TargetID: 2, Caption: "legacy early", Status: models.LegacyStatusQueued, RunAt: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)},
		&models.LegacyJob{ID: 12, TargetID: 2, Caption: "legacy failed", Status: models.LegacyStatusFailed, RunAt: time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC), ErrorMessage: "no luck"},
		// other user's target is filtered out
		&models.LegacyJob{ID: 13, TargetID: 99, Caption: "foreign", Status: models.LegacyStatusQueued, RunAt: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)},
	)

	accounts := connectedAccounts()
	accounts[99] = &models.SocialAccount{ID: 99, UserID: 8, Platform: models.PlatformFacebook, AccountStatus: models.AccountStatusConnected}

	q := testQueue(pr, lr, accounts, &fakePublisher{})

	views, err := q.MergedJobs(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, views, 3)

	// sorted by run time across both representations
	assert.Equal(t, int64(11), views[0].ID)
	assert.Equal(t, transfer.JobSourceLegacy, views[0].Source)
	assert.Equal(t, models.PostStatusPending, views[0].Status, "queued maps to pending for display")

	assert.Equal(t, postID, views[1].ID)
	assert.Equal(t, transfer.JobSourceScheduled, views[1].Source)

	assert.Equal(t, int64(12), views[2].ID)
	assert.Equal(t, models.PostStatusFailed, views[2].Status)
	assert.Equal(t, "no luck", views[2].ErrorMessage)
}
