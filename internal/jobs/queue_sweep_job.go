package job

import (
	"context"
	"log/slog"

	"github.com/campfirehq/socialqueue/internal/queue"
)

// QueueSweepJob is the periodic polling trigger of the queue processor. It
// is the restart-surviving backstop: the durable store, not the task
// transport, decides what is due.
type QueueSweepJob struct {
	q *queue.Queue
}

func NewQueueSweepJob(q *queue.Queue) *QueueSweepJob {
	return &QueueSweepJob{q: q}
}

func (j *QueueSweepJob) Sweep() {
	ctx := context.Background()

	summary, err := j.q.RunAllDue(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if summary.Processed > 0 {
		slog.Info("queue sweep finished",
			"processed", summary.Processed,
			"published", summary.Published,
			"failed", summary.Failed)
	}
}
