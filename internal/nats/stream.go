package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/halcyon-ai/agent-console/internal/model"
)

const (
	// StreamName is the name of the messages stream.
	StreamName = "MESSAGES"

	// SubjectPrefix is the prefix for all message subjects.
	SubjectPrefix = "console"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the messages stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	// Check if stream exists
	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	// Create stream. Purge stays allowed: clearing a session purges its
	// subjects.
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour, // 1 year
		MaxBytes:    10 * 1024 * 1024 * 1024, // 10GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		Description: "All persisted conversation messages",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject for a message.
func MessageSubject(userID, sessionID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.%s.msg.%s", SubjectPrefix, userID, sessionID, role)
}

// SessionFilter returns the filter subject for all messages in a session.
func SessionFilter(userID, sessionID string) string {
	return fmt.Sprintf("%s.%s.%s.>", SubjectPrefix, userID, sessionID)
}

// UserFilter returns the filter subject for all messages of a user across
// sessions.
func UserFilter(userID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, userID)
}

// PublishMessage publishes a message to JetStream.
func (m *StreamManager) PublishMessage(ctx context.Context, msg *model.Message) (uint64, error) {
	subject := MessageSubject(msg.UserID, msg.SessionID, msg.Role)

	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish message: %w", err)
	}

	return ack.Sequence, nil
}

// GetMessages replays messages matching a filter subject, starting after a
// sequence. Use SessionFilter or UserFilter to build the filter.
func (m *StreamManager) GetMessages(ctx context.Context, filterSubject string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error) {
	js := m.client.JetStream()

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}

	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := js.CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to fetch messages: %w", err)
	}

	messages, lastSequence := drainBatch(fetchCtx, batch)

	if batch.Error() != nil && batch.Error() != context.DeadlineExceeded {
		return nil, 0, false, fmt.Errorf("batch error: %w", batch.Error())
	}

	hasMore := len(messages) == limit

	return messages, lastSequence, hasMore, nil
}

// messageBatch is the slice of jetstream.MessageBatch the drain loop needs.
type messageBatch interface {
	Messages() <-chan jetstream.Msg
	Error() error
}

// drainBatch collects messages off a fetched batch until the channel closes
// or the context expires. Undecodable payloads are skipped.
func drainBatch(ctx context.Context, batch messageBatch) ([]model.Message, uint64) {
	var messages []model.Message
	var lastSequence uint64

	for {
		select {
		case <-ctx.Done():
			return messages, lastSequence
		case msg, ok := <-batch.Messages():
			if !ok {
				return messages, lastSequence
			}

			var message model.Message
			if err := json.Unmarshal(msg.Data(), &message); err != nil {
				continue
			}

			if meta, err := msg.Metadata(); err == nil {
				message.Sequence = meta.Sequence.Stream
				lastSequence = meta.Sequence.Stream
			}

			messages = append(messages, message)
		}
	}
}

// PurgeSession removes all persisted messages for one session.
func (m *StreamManager) PurgeSession(ctx context.Context, userID, sessionID string) error {
	stream, err := m.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	if err := stream.Purge(ctx, jetstream.WithPurgeSubject(SessionFilter(userID, sessionID))); err != nil {
		return fmt.Errorf("failed to purge session: %w", err)
	}
	return nil
}
