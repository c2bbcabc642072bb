package stream

import (
	"strings"

	"github.com/halcyon-ai/agent-console/internal/model"
)

// Selection is the user's raw choice for one question: the picked option
// labels plus the optional free-text "other" entry.
type Selection struct {
	Labels        []string
	OtherSelected bool
	OtherText     string
}

// CollapseAnswer reduces a selection to the single answer string for a
// question header. Multi-select joins the chosen labels with ", "; an "other"
// entry contributes only when its free text is non-empty. ok is false when
// nothing usable was selected, in which case the header is omitted from the
// synthesized message.
func CollapseAnswer(q model.Question, sel Selection) (answer string, ok bool) {
	values := make([]string, 0, len(sel.Labels)+1)
	for _, label := range sel.Labels {
		if label != "" {
			values = append(values, label)
		}
	}
	if sel.OtherSelected {
		if text := strings.TrimSpace(sel.OtherText); text != "" {
			values = append(values, text)
		}
	}

	if len(values) == 0 {
		return "", false
	}
	if !q.MultiSelect {
		return values[0], true
	}
	return strings.Join(values, ", "), true
}

// SynthesizeMessage builds the follow-up user message from collected answers:
// one "Header: value" line per answered question, in question order. The
// result is sent as if the user had typed it, starting a new turn.
func SynthesizeMessage(questions []model.Question, answers map[string]string) string {
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		value, ok := answers[q.Header]
		if !ok || value == "" {
			continue
		}
		lines = append(lines, q.Header+": "+value)
	}
	return strings.Join(lines, "\n")
}

// CollectAnswers collapses a selection per question into the header->answer
// map consumed by SynthesizeMessage. Unanswered questions are absent.
func CollectAnswers(questions []model.Question, selections map[string]Selection) map[string]string {
	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		sel, ok := selections[q.Header]
		if !ok {
			continue
		}
		if value, ok := CollapseAnswer(q, sel); ok {
			answers[q.Header] = value
		}
	}
	return answers
}
