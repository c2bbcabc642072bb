package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-ai/agent-console/internal/model"
)

// fakeMsg covers the two Msg methods the drain loop touches.
type fakeMsg struct {
	jetstream.Msg
	data []byte
	seq  uint64
}

func (m *fakeMsg) Data() []byte { return m.data }

func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{Sequence: jetstream.SequencePair{Stream: m.seq}}, nil
}

type fakeBatch struct {
	ch  chan jetstream.Msg
	err error
}

func (b *fakeBatch) Messages() <-chan jetstream.Msg { return b.ch }
func (b *fakeBatch) Error() error                   { return b.err }

func encodedMessage(t *testing.T, content string, seq uint64) jetstream.Msg {
	t.Helper()
	data, err := json.Marshal(model.Message{
		UserID:    "user-1",
		SessionID: "sess-1",
		Role:      model.RoleUser,
		Content:   content,
	})
	require.NoError(t, err)
	return &fakeMsg{data: data, seq: seq}
}

func TestDrainBatchCollectsMessages(t *testing.T) {
	batch := &fakeBatch{ch: make(chan jetstream.Msg, 3)}
	batch.ch <- encodedMessage(t, "first", 4)
	batch.ch <- &fakeMsg{data: []byte("not json"), seq: 5}
	batch.ch <- encodedMessage(t, "second", 6)
	close(batch.ch)

	messages, lastSeq := drainBatch(context.Background(), batch)

	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, uint64(4), messages[0].Sequence)
	assert.Equal(t, "second", messages[1].Content)
	assert.Equal(t, uint64(6), lastSeq)
}

func TestDrainBatchStopsWhenContextExpires(t *testing.T) {
	batch := &fakeBatch{ch: make(chan jetstream.Msg)}

	// Keep feeding messages so only the context can end the loop.
	msg := encodedMessage(t, "more", 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case batch.ch <- msg:
			case <-stop:
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	var messages []model.Message
	go func() {
		messages, _ = drainBatch(ctx, batch)
		close(done)
	}()

	select {
	case <-done:
		assert.NotEmpty(t, messages)
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not stop after context expiry")
	}
}

func TestSubjectHelpers(t *testing.T) {
	assert.Equal(t, "console.user-1.sess-1.msg.user", MessageSubject("user-1", "sess-1", model.RoleUser))
	assert.Equal(t, "console.user-1.sess-1.>", SessionFilter("user-1", "sess-1"))
	assert.Equal(t, "console.user-1.>", UserFilter("user-1"))
}
