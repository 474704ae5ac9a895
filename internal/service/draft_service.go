package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DraftService is the best-effort staging area for an in-progress
// composition, keyed by source album. Partial updates merge last-write-wins
// per field; a successful submit clears the entry. Losing a draft before
// submission is accepted data loss, so every failure here is soft.
type DraftService interface {
	Get(ctx context.Context, userID, albumID int64) (map[string]string, error)
	Put(ctx context.Context, userID, albumID int64, fields map[string]string) error
	Clear(ctx context.Context, userID, albumID int64) error
}

type draftService struct {
	rdb *redis.Client
}

func NewDraftService(rdb *redis.Client) DraftService {
	return &draftService{rdb: rdb}
}

func draftKey(userID, albumID int64) string {
	return fmt.Sprintf("draft:%d:%d", userID, albumID)
}

func (s *draftService) Get(ctx context.Context, userID, albumID int64) (map[string]string, error) {
	fields, err := s.rdb.HGetAll(ctx, draftKey(userID, albumID)).Result()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return fields, nil
}

func (s *draftService) Put(ctx context.Context, userID, albumID int64, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	if err := s.rdb.HSet(ctx, draftKey(userID, albumID), args...).Err(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (s *draftService) Clear(ctx context.Context, userID, albumID int64) error {
	if err := s.rdb.Del(ctx, draftKey(userID, albumID)).Err(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
