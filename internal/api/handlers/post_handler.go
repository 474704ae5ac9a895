package handlers

import (
	"log/slog"
	"time"

	"github.com/campfirehq/socialqueue/internal/queue"
	"github.com/campfirehq/socialqueue/internal/repository"
	"github.com/campfirehq/socialqueue/internal/service"
	"github.com/campfirehq/socialqueue/internal/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type PostHandler struct {
	s           service.PostService
	q           *queue.Queue
	drafts      service.DraftService
	AsynqClient *asynq.Client
}

func NewPostHandler(s service.PostService, q *queue.Queue, drafts service.DraftService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: s, q: q, drafts: drafts, AsynqClient: asynqClient}
}

// SubmitPost accepts a finished composition and either publishes it right
// away (synchronous outcome in the response) or parks it for the processor.
func (h *PostHandler) SubmitPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, delay, err := h.s.Submit(c.Context(), userID, &req)
	if err != nil {
		return c.Status(statusFor(err)).JSON(transfer.SubmitResponse{
			OK:    false,
			Error: err.Error(),
		})
	}

	if delay > 0 {
		if err := queue.EnqueuePost(h.AsynqClient, queue.SchedulePostPayload{PostID: post.ID}, delay); err != nil {
			// The cron sweep still picks the record up once due; the enqueue
			// only buys precision.
			slog.Info(err.Error())
		}
	}

	// Handoff contract: a successful submit clears the staged draft.
	if err := h.drafts.Clear(c.Context(), userID, req.AlbumID); err != nil {
		slog.Info(err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(transfer.SubmitResponse{
		OK:            true,
		Post:          post,
		JobCount:      len(post.TargetIDs),
		TargetResults: post.TargetResults,
	})
}

// ListScheduled serves the list and calendar views. Reads are unsynchronized
// and may be slightly stale; every mutation path re-validates state.
func (h *PostHandler) ListScheduled(c *fiber.Ctx) error {
	userID := GetUserID(c)

	filter := repository.PostFilter{
		Status:    c.Query("status"),
		AccountID: int64(c.QueryInt("account", 0)),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid from"})
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid to"})
		}
		filter.To = t
	}

	posts, err := h.s.List(c.Context(), userID, filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list scheduled posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

// Reschedule moves a pending post. A 409 means the processor claimed the
// record mid-move; the calendar reverts its optimistic drop and tells the
// operator instead of losing the claim.
func (h *PostHandler) Reschedule(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	var req transfer.RescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	var newAt time.Time
	switch {
	case req.ScheduledAt != "":
		newAt, err = time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid scheduled_at"})
		}
	case req.Day != "":
		day, err := time.Parse("2006-01-02", req.Day)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid day"})
		}
		post, err := h.s.PostInfo(c.Context(), int64(postID), userID)
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		}
		newAt = service.CombineDayTime(day, post.ScheduledAt)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at or day required"})
	}

	post, err := h.s.Reschedule(c.Context(), userID, int64(postID), newAt)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

// Reprocess is the explicit operator re-attempt of a failed post.
func (h *PostHandler) Reprocess(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	if _, err := h.s.PostInfo(c.Context(), int64(postID), userID); err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	post, err := h.q.Reprocess(c.Context(), int64(postID))
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

// RunScheduled is the manual sweep of all currently-due work, both
// representations at once.
func (h *PostHandler) RunScheduled(c *fiber.Ctx) error {
	summary, err := h.q.RunAllDue(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Queue run failed",
		})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}
