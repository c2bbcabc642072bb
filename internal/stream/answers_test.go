package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/halcyon-ai/agent-console/internal/model"
)

func singleSelect(header string, labels ...string) model.Question {
	q := model.Question{Header: header, Question: header + "?"}
	for _, l := range labels {
		q.Options = append(q.Options, model.QuestionOption{Label: l})
	}
	return q
}

func multiSelect(header string, labels ...string) model.Question {
	q := singleSelect(header, labels...)
	q.MultiSelect = true
	return q
}

func TestCollapseSingleSelect(t *testing.T) {
	q := singleSelect("H", "X", "Y")

	answer, ok := CollapseAnswer(q, Selection{Labels: []string{"X"}})
	assert.True(t, ok)
	assert.Equal(t, "X", answer)
}

func TestCollapseSingleSelectNoneChosen(t *testing.T) {
	q := singleSelect("H", "X")

	_, ok := CollapseAnswer(q, Selection{})
	assert.False(t, ok)
}

func TestCollapseMultiSelectJoinsLabels(t *testing.T) {
	q := multiSelect("Tools", "bash", "grep", "glob")

	answer, ok := CollapseAnswer(q, Selection{Labels: []string{"bash", "glob"}})
	assert.True(t, ok)
	assert.Equal(t, "bash, glob", answer)
}

func TestCollapseOtherRequiresText(t *testing.T) {
	q := multiSelect("Tools", "bash")

	// Empty free text: the other entry is excluded from the joined value.
	answer, ok := CollapseAnswer(q, Selection{
		Labels:        []string{"bash"},
		OtherSelected: true,
		OtherText:     "   ",
	})
	assert.True(t, ok)
	assert.Equal(t, "bash", answer)

	answer, ok = CollapseAnswer(q, Selection{
		Labels:        []string{"bash"},
		OtherSelected: true,
		OtherText:     "custom tool",
	})
	assert.True(t, ok)
	assert.Equal(t, "bash, custom tool", answer)
}

func TestCollapseOtherOnlyEmptyTextOmitsAnswer(t *testing.T) {
	q := singleSelect("H", "X")

	_, ok := CollapseAnswer(q, Selection{OtherSelected: true, OtherText: ""})
	assert.False(t, ok)
}

func TestSynthesizeMessageSingleAnswer(t *testing.T) {
	questions := []model.Question{singleSelect("H", "X")}

	msg := SynthesizeMessage(questions, map[string]string{"H": "X"})
	assert.Equal(t, "H: X", msg)
}

func TestSynthesizeMessageKeepsQuestionOrder(t *testing.T) {
	questions := []model.Question{
		singleSelect("First", "a"),
		singleSelect("Second", "b"),
		singleSelect("Third", "c"),
	}
	answers := map[string]string{
		"Third":  "c",
		"First":  "a",
		"Second": "b",
	}

	msg := SynthesizeMessage(questions, answers)
	assert.Equal(t, "First: a\nSecond: b\nThird: c", msg)
}

func TestSynthesizeMessageOmitsUnanswered(t *testing.T) {
	questions := []model.Question{
		singleSelect("Answered", "x"),
		singleSelect("Skipped", "y"),
	}

	msg := SynthesizeMessage(questions, map[string]string{"Answered": "x"})
	assert.Equal(t, "Answered: x", msg)
}

func TestCollectAnswers(t *testing.T) {
	questions := []model.Question{
		multiSelect("Langs", "go", "rust"),
		singleSelect("Editor", "vim"),
		singleSelect("Unanswered", "z"),
	}
	selections := map[string]Selection{
		"Langs":  {Labels: []string{"go", "rust"}},
		"Editor": {OtherSelected: true, OtherText: "helix"},
	}

	answers := CollectAnswers(questions, selections)
	assert.Equal(t, map[string]string{
		"Langs":  "go, rust",
		"Editor": "helix",
	}, answers)
}
