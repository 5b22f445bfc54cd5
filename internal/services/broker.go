package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"creatorlens-backend/internal/models"
)

const (
	JobKindAnalysis      = "analysis"
	JobKindTranscription = "transcription"
)

// StatusBroker is the advisory layer in front of the job store: a Redis
// progress cache plus the pub/sub channel feeding the WebSocket hub. It is
// disposable by design — every method is a no-op on a nil broker, and
// nothing read from it may override the persisted row beyond raising a
// progress hint.
type StatusBroker struct {
	cache *redis.Client
	pub   *redis.Client
}

func NewStatusBroker(cache, pub *redis.Client) *StatusBroker {
	return &StatusBroker{cache: cache, pub: pub}
}

func progressKey(kind string, id uuid.UUID) string {
	return fmt.Sprintf("jobs:%s:%s:progress", kind, id)
}

func (b *StatusBroker) CacheProgress(ctx context.Context, kind string, id uuid.UUID, status string, progress int) {
	if b == nil || b.cache == nil {
		return
	}
	b.cache.Set(ctx, progressKey(kind, id), fmt.Sprintf("%s:%d", status, progress), time.Hour)
}

// CachedProgress returns the advisory progress hint, if any.
func (b *StatusBroker) CachedProgress(ctx context.Context, kind string, id uuid.UUID) (int, bool) {
	if b == nil || b.cache == nil {
		return 0, false
	}
	val, err := b.cache.Get(ctx, progressKey(kind, id)).Result()
	if err != nil {
		return 0, false
	}
	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	progress, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return progress, true
}

func (b *StatusBroker) Forget(ctx context.Context, kind string, id uuid.UUID) {
	if b == nil || b.cache == nil {
		return
	}
	b.cache.Del(ctx, progressKey(kind, id))
}

// Publish pushes a status message onto the user's WebSocket channel.
func (b *StatusBroker) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	if b == nil || b.pub == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	b.pub.Publish(ctx, "user_updates:"+userID.String(), string(data))
}
