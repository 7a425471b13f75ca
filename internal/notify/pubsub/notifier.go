// Package pubsub implements a Google Cloud Pub/Sub run notifier.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/notify"
)

// Notifier publishes run summaries to a Pub/Sub topic. It owns the client it
// was constructed with and releases it on Close.
type Notifier struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// New verifies the topic exists and returns a Notifier bound to it. The
// client is closed on failure so callers never hold a half-built notifier.
func New(ctx context.Context, client *pubsub.Client, topicID string, logger *zap.Logger) (*Notifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("Pubsub client close failed after topic check error", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("Pubsub client close failed after missing topic", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic %q does not exist", topicID)
	}
	return &Notifier{client: client, topic: topic, logger: logger}, nil
}

// Announce marshals the summary to JSON and publishes it. Unlike high-volume
// pipelines this fires once per run, so it waits for the server ack and
// returns the assigned message ID.
func (n *Notifier) Announce(ctx context.Context, summary notify.RunSummary) (string, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	msg := &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"run_id": summary.RunID},
	}
	id, err := n.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish summary: %w", err)
	}
	n.logger.Info("Run summary published",
		zap.String("topic", n.topic.ID()),
		zap.String("message_id", id),
		zap.String("run_id", summary.RunID),
	)
	return id, nil
}

// Close stops the topic's publish goroutines and closes the client.
func (n *Notifier) Close() error {
	n.topic.Stop()
	if err := n.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
