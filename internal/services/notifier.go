package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/recapio/recapio-backend/internal/logger"
)

// ProgressNotifier publishes processing-status transitions so clients
// can subscribe instead of polling. A nil notifier is valid and drops
// every event, which keeps redis optional in development.
type ProgressNotifier struct {
	log    *logger.Logger
	client *redis.Client
}

func NewProgressNotifier(log *logger.Logger) *ProgressNotifier {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Info("REDIS_ADDR not set, progress notifications disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	return &ProgressNotifier{
		log:    log.With("service", "ProgressNotifier"),
		client: client,
	}
}

type progressEvent struct {
	VideoID      string `json:"video_id"`
	Status       string `json:"status"`
	BatchCurrent int    `json:"batch_current,omitempty"`
	BatchTotal   int    `json:"batch_total,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (n *ProgressNotifier) PublishStatus(ctx context.Context, videoID, status string, batchCurrent, batchTotal int, errMsg string) {
	if n == nil || n.client == nil {
		return
	}
	payload, err := json.Marshal(progressEvent{
		VideoID:      videoID,
		Status:       status,
		BatchCurrent: batchCurrent,
		BatchTotal:   batchTotal,
		Error:        errMsg,
	})
	if err != nil {
		return
	}
	channel := fmt.Sprintf("video:progress:%s", videoID)
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		n.log.Warn("progress publish failed", "video_id", videoID, "error", err)
	}
}

func (n *ProgressNotifier) Close() error {
	if n == nil || n.client == nil {
		return nil
	}
	return n.client.Close()
}
