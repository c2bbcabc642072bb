package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-ai/agent-console/internal/model"
	natsclient "github.com/halcyon-ai/agent-console/internal/nats"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// fakeMessageStore mimics JetStream subject-filtered replay in memory.
type fakeMessageStore struct {
	messages   []model.Message
	publishErr error
	purged     []string
}

func (f *fakeMessageStore) PublishMessage(ctx context.Context, msg *model.Message) (uint64, error) {
	if f.publishErr != nil {
		return 0, f.publishErr
	}
	seq := uint64(len(f.messages) + 1)
	stored := *msg
	stored.Sequence = seq
	f.messages = append(f.messages, stored)
	return seq, nil
}

func (f *fakeMessageStore) GetMessages(ctx context.Context, filterSubject string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error) {
	prefix := strings.TrimSuffix(filterSubject, ">")
	var out []model.Message
	var lastSeq uint64
	for _, msg := range f.messages {
		if msg.Sequence <= afterSequence {
			continue
		}
		subject := natsclient.MessageSubject(msg.UserID, msg.SessionID, msg.Role)
		if !strings.HasPrefix(subject, prefix) {
			continue
		}
		out = append(out, msg)
		lastSeq = msg.Sequence
		if len(out) >= limit {
			break
		}
	}
	return out, lastSeq, len(out) == limit, nil
}

func (f *fakeMessageStore) PurgeSession(ctx context.Context, userID, sessionID string) error {
	f.purged = append(f.purged, userID+"/"+sessionID)
	var kept []model.Message
	for _, msg := range f.messages {
		if msg.UserID == userID && msg.SessionID == sessionID {
			continue
		}
		kept = append(kept, msg)
	}
	f.messages = kept
	return nil
}

func newSessionFixture() (*SessionService, *fakeMessageStore) {
	store := &fakeMessageStore{}
	return NewSessionService(store, logger.NewNop()), store
}

func seed(t *testing.T, svc *SessionService, userID, sessionID string, role model.Role, content string) *model.Message {
	t.Helper()
	msg, err := svc.SaveMessage(context.Background(), userID, sessionID, &model.SaveMessageRequest{
		Role:    role,
		Content: content,
	})
	require.NoError(t, err)
	return msg
}

func TestSaveMessageValidation(t *testing.T) {
	svc, _ := newSessionFixture()
	ctx := context.Background()

	_, err := svc.SaveMessage(ctx, "u1", "s1", &model.SaveMessageRequest{Role: "robot", Content: "x"})
	assert.Error(t, err)

	_, err = svc.SaveMessage(ctx, "u1", "s1", &model.SaveMessageRequest{Role: model.RoleUser})
	assert.Error(t, err)

	msg := seed(t, svc, "u1", "s1", model.RoleUser, "hello")
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, uint64(1), msg.Sequence)
}

func TestHistoryScopedToSession(t *testing.T) {
	svc, _ := newSessionFixture()

	seed(t, svc, "u1", "s1", model.RoleUser, "first")
	seed(t, svc, "u1", "s1", model.RoleAssistant, "second")
	seed(t, svc, "u1", "s2", model.RoleUser, "other session")
	seed(t, svc, "u2", "s1", model.RoleUser, "other user")

	history, err := svc.History(context.Background(), "u1", "s1", 50)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)
}

func TestSearchMatchesAcrossSessions(t *testing.T) {
	svc, _ := newSessionFixture()

	seed(t, svc, "u1", "s1", model.RoleUser, "Deploy the API tonight")
	seed(t, svc, "u1", "s2", model.RoleAssistant, "The deploy finished")
	seed(t, svc, "u1", "s1", model.RoleUser, "unrelated")
	seed(t, svc, "u2", "s1", model.RoleUser, "deploy for someone else")

	results, err := svc.Search(context.Background(), "u1", "DEPLOY", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, msg := range results {
		assert.Equal(t, "u1", msg.UserID)
	}

	_, err = svc.Search(context.Background(), "u1", "", 10)
	assert.Error(t, err)
}

func TestStatsAggregation(t *testing.T) {
	svc, _ := newSessionFixture()

	seed(t, svc, "u1", "s1", model.RoleUser, "a")
	seed(t, svc, "u1", "s1", model.RoleAssistant, "b")
	seed(t, svc, "u1", "s2", model.RoleUser, "c")

	stats, err := svc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, 2, stats.TotalSessions)
	require.NotNil(t, stats.FirstMessage)
	require.NotNil(t, stats.LastMessage)
	assert.True(t, !stats.LastMessage.Before(*stats.FirstMessage))
}

func TestClearPurgesSession(t *testing.T) {
	svc, store := newSessionFixture()

	seed(t, svc, "u1", "s1", model.RoleUser, "a")
	seed(t, svc, "u1", "s2", model.RoleUser, "b")

	require.NoError(t, svc.Clear(context.Background(), "u1", "s1"))
	assert.Equal(t, []string{"u1/s1"}, store.purged)

	history, err := svc.History(context.Background(), "u1", "s1", 50)
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = svc.History(context.Background(), "u1", "s2", 50)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestExportReturnsFullSession(t *testing.T) {
	svc, _ := newSessionFixture()

	for i := 0; i < 5; i++ {
		seed(t, svc, "u1", "s1", model.RoleUser, time.Now().String())
	}

	all, err := svc.Export(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
