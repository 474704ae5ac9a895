package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/campfirehq/socialqueue/internal/models"
	"github.com/campfirehq/socialqueue/internal/repository"
	"github.com/campfirehq/socialqueue/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory stand-ins for the Postgres repositories, compare-and-set
// semantics included.

type memPostRepo struct {
	mu     sync.Mutex
	posts  map[int64]*models.ScheduledPost
	nextID int64
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[int64]*models.ScheduledPost)}
}

func (r *memPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *post
	clone.ID = r.nextID
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	r.posts[clone.ID] = &clone
	return clone.ID, nil
}

func (r *memPostRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	clone := *post
	return &clone, nil
}

func (r *memPostRepo) List(ctx context.Context, userID int64, filter repository.PostFilter) ([]*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.ScheduledPost
	for _, post := range r.posts {
		if post.UserID != userID {
			continue
		}
		if filter.Status != "" && post.Status != filter.Status {
			continue
		}
		clone := *post
		posts = append(posts, &clone)
	}
	return posts, nil
}

func (r *memPostRepo) ListDueIDs(ctx context.Context, now time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, post := range r.posts {
		if post.Status == models.PostStatusPending && !post.ScheduledAt.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memPostRepo) casStatus(id int64, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.Status != from {
		return false, nil
	}
	post.Status = to
	post.UpdatedAt = time.Now()
	return true, nil
}

func (r *memPostRepo) ClaimPending(ctx context.Context, id int64) (bool, error) {
	return r.casStatus(id, models.PostStatusPending, models.PostStatusPublishing)
}

func (r *memPostRepo) ClaimFailed(ctx context.Context, id int64) (bool, error) {
	return r.casStatus(id, models.PostStatusFailed, models.PostStatusPublishing)
}

func (r *memPostRepo) Reschedule(ctx context.Context, id int64, scheduledAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusPending {
		return false, nil
	}
	post.ScheduledAt = scheduledAt
	post.UpdatedAt = time.Now()
	return true, nil
}

func (r *memPostRepo) Finish(ctx context.Context, id int64, status, errorMessage string, publishedAt *time.Time, results []models.TargetResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post := r.posts[id]
	post.Status = status
	post.ErrorMessage = errorMessage
	post.PublishedAt = publishedAt
	post.TargetResults = results
	post.UpdatedAt = time.Now()
	return nil
}

func (r *memPostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	return ok && post.UserID == userID, nil
}

type memAccountRepo struct {
	accounts map[int64]*models.SocialAccount
}

func (r *memAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return acc, nil
}

func (r *memAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	var accounts []*models.SocialAccount
	for _, acc := range r.accounts {
		if acc.UserID == userID {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (r *memAccountRepo) ListInfoByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	return r.ListByUserID(ctx, userID)
}

func (r *memAccountRepo) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	acc, ok := r.accounts[accountID]
	return ok && acc.UserID == userID, nil
}

// fakeExecutor claims and finishes the post the way the queue processor
// would, with a canned outcome.
type fakeExecutor struct {
	repo     *memPostRepo
	outcome  string
	executed []int64
}

func (e *fakeExecutor) ExecutePost(ctx context.Context, postID int64) (*models.ScheduledPost, error) {
	e.executed = append(e.executed, postID)
	claimed, _ := e.repo.ClaimPending(ctx, postID)
	if claimed {
		var publishedAt *time.Time
		if e.outcome == models.PostStatusPublished {
			now := time.Now()
			publishedAt = &now
		}
		_ = e.repo.Finish(ctx, postID, e.outcome, "", publishedAt, nil)
	}
	return e.repo.GetByID(ctx, postID)
}

func testAccounts() map[int64]*models.SocialAccount {
	return map[int64]*models.SocialAccount{
		1: {ID: 1, UserID: 7, Platform: models.PlatformInstagram, AccountUsername: "ig1", AccountStatus: models.AccountStatusConnected},
		2: {ID: 2, UserID: 7, Platform: models.PlatformFacebook, AccountUsername: "fb1", AccountStatus: models.AccountStatusConnected},
	}
}

func TestSubmitImmediate(t *testing.T) {
	repo := newMemPostRepo()
	exec := &fakeExecutor{repo: repo, outcome: models.PostStatusPublished}
	svc := NewPostService(repo, &memAccountRepo{accounts: testAccounts()}, exec)

	post, delay, err := svc.Submit(context.Background(), 7, &transfer.SubmitRequest{
		AlbumID:    3,
		TargetIDs:  []int64{1},
		Caption:    "hello",
		MediaSpecs: specsOf(3),
	})
	require.NoError(t, err)
	assert.Zero(t, delay)
	assert.Equal(t, models.PostStatusPublished, post.Status)
	assert.Equal(t, []int64{post.ID}, exec.executed)
}

func TestSubmitScheduledLeavesPending(t *testing.T) {
	repo := newMemPostRepo()
	exec := &fakeExecutor{repo: repo, outcome: models.PostStatusPublished}
	svc := NewPostService(repo, &memAccountRepo{accounts: testAccounts()}, exec)

	tomorrow := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	post, delay, err := svc.Submit(context.Background(), 7, &transfer.SubmitRequest{
		TargetIDs:   []int64{1, 2},
		Caption:     "later",
		MediaSpecs:  specsOf(1),
		ScheduledAt: tomorrow.Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Greater(t, delay, time.Duration(0))
	assert.Equal(t, models.PostStatusPending, post.Status)
	assert.Empty(t, exec.executed)
	assert.True(t, post.ScheduledAt.Equal(tomorrow))
}

func TestSubmitValidationCreatesNoRecord(t *testing.T) {
	repo := newMemPostRepo()
	svc := NewPostService(repo, &memAccountRepo{accounts: testAccounts()}, &fakeExecutor{repo: repo})

	cases := []struct {
		name string
		req  transfer.SubmitRequest
	}{
		{"no targets", transfer.SubmitRequest{MediaSpecs: specsOf(1)}},
		{"no media", transfer.SubmitRequest{TargetIDs: []int64{1}}},
		{"too many for carousel", transfer.SubmitRequest{TargetIDs: []int64{1}, MediaSpecs: specsOf(11)}},
		{"unknown account", transfer.SubmitRequest{TargetIDs: []int64{99}, MediaSpecs: specsOf(1)}},
		{"bad timestamp", transfer.SubmitRequest{TargetIDs: []int64{1}, MediaSpecs: specsOf(1), ScheduledAt: "tomorrow-ish"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Submit(context.Background(), 7, &tc.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Empty(t, repo.posts, "validation failure must not leave partial records")
}

func TestRescheduleOnlyWhilePending(t *testing.T) {
	repo := newMemPostRepo()
	svc := NewPostService(repo, &memAccountRepo{accounts: testAccounts()}, &fakeExecutor{repo: repo})

	id, err := repo.Create(context.Background(), nil, &models.ScheduledPost{
		UserID:      7,
		Status:      models.PostStatusPending,
		ScheduledAt: time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC),
		MediaSpecs:  specsOf(1),
		TargetIDs:   []int64{1},
	})
	require.NoError(t, err)

	newAt := time.Date(2026, 9, 2, 14, 30, 0, 0, time.UTC)
	post, err := svc.Reschedule(context.Background(), 7, id, newAt)
	require.NoError(t, err)
	assert.True(t, post.ScheduledAt.Equal(newAt))
	assert.Equal(t, models.PostStatusPending, post.Status)

	// concurrent claim wins, the move must be rejected
	claimed, _ := repo.ClaimPending(context.Background(), id)
	require.True(t, claimed)

	_, err = svc.Reschedule(context.Background(), 7, id, newAt.Add(24*time.Hour))
	assert.ErrorIs(t, err, ErrConflict)

	current, _ := repo.GetByID(context.Background(), id)
	assert.True(t, current.ScheduledAt.Equal(newAt), "failed reschedule must not move the time")

	_, err = svc.Reschedule(context.Background(), 7, 999, newAt)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCombineDayTime(t *testing.T) {
	existing := time.Date(2026, 9, 1, 14, 30, 45, 0, time.UTC)
	day := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)

	combined := CombineDayTime(day, existing)
	assert.Equal(t, time.Date(2026, 9, 3, 14, 30, 45, 0, time.UTC), combined,
		"day changes, time-of-day does not")
}
