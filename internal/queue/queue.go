package queue

import (
	"time"

	"github.com/campfirehq/socialqueue/internal/repository"
	"github.com/campfirehq/socialqueue/internal/service"
)

// Queue is the processor that claims due records and runs their publish
// attempts. It may be invoked concurrently (asynq delivery, cron tick,
// manual trigger); the per-record claim guarantees at most one execution
// attempt in flight per record.
type Queue struct {
	pr  repository.PostRepository
	lr  repository.LegacyJobRepository
	ac  repository.SocialAccountRepository
	ig  service.PlatformPublisher
	fb  service.PlatformPublisher
	now func() time.Time
}

func NewQueue(
	pr repository.PostRepository,
	lr repository.LegacyJobRepository,
	ac repository.SocialAccountRepository,
	ig service.InstagramService,
	fb service.FacebookService) *Queue {
	return &Queue{
		pr:  pr,
		lr:  lr,
		ac:  ac,
		ig:  ig,
		fb:  fb,
		now: time.Now,
	}
}

const TaskTypeSchedulePost = "schedule:post"

type SchedulePostPayload struct {
	PostID int64 `json:"post_id"`
}
