package stream

import (
	"strings"

	"github.com/halcyon-ai/agent-console/internal/model"
)

// TurnState tracks what the turn is blocked on, if anything.
type TurnState string

const (
	// TurnStreaming means records are still being consumed.
	TurnStreaming TurnState = "streaming"
	// TurnAwaitingApproval means a privileged operation is paused on a
	// human approve/reject decision.
	TurnAwaitingApproval TurnState = "awaiting_approval"
	// TurnAwaitingAnswer means the assistant posed questions and is blocked
	// until the user answers.
	TurnAwaitingAnswer TurnState = "awaiting_answer"
	// TurnFinished means the stream has ended.
	TurnFinished TurnState = "finished"
)

// Turn accumulates one assistant reply: the ordered event list plus the
// segmented text buffers. It lives for the duration of one streamed response
// and owns all of its state; nothing here is shared between turns.
type Turn struct {
	Events []model.StreamRecord
	State  TurnState

	// PendingLogID is the operation awaiting approval when State is
	// TurnAwaitingApproval.
	PendingLogID int64

	// Questions holds the posed questions when State is TurnAwaitingAnswer.
	Questions []model.Question

	segments []string
	textOpen bool
}

// NewTurn returns an empty turn in the streaming state.
func NewTurn() *Turn {
	return &Turn{State: TurnStreaming}
}

// appendText grows the active text buffer, opening a new one if the previous
// buffer was closed by a non-text event.
func (t *Turn) appendText(content string) (segment int, full string) {
	if !t.textOpen {
		t.segments = append(t.segments, "")
		t.textOpen = true
	}
	i := len(t.segments) - 1
	t.segments[i] += content
	return i, t.segments[i]
}

// closeText ends the active text buffer so the next text delta starts fresh.
func (t *Turn) closeText() {
	t.textOpen = false
}

// Segments returns the completed text buffers in order.
func (t *Turn) Segments() []string {
	return t.segments
}

// Text returns the flattened assistant prose for the whole turn.
func (t *Turn) Text() string {
	return strings.Join(t.segments, "")
}
