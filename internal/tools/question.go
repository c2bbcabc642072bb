package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/halcyon-ai/agent-console/internal/model"
)

type askUserQuestionInput struct {
	Questions []model.Question `json:"questions"`
}

// askUserQuestionTool does not execute anything itself. Its result carries
// the questions back to the caller, which pauses the turn until the user
// answers.
type askUserQuestionTool struct{}

func (t *askUserQuestionTool) Name() string { return "ask_user_question" }

func (t *askUserQuestionTool) Description() string {
	return "Ask the user one or more multiple-choice questions when a decision is needed before continuing. Each question has a short header and a set of options."
}

func (t *askUserQuestionTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"questions": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"header": {"type": "string", "description": "Short label, e.g. Auth method"},
						"question": {"type": "string", "description": "The full question text"},
						"multiSelect": {"type": "boolean", "description": "Allow choosing more than one option"},
						"options": {
							"type": "array",
							"items": {
								"type": "object",
								"properties": {
									"label": {"type": "string"},
									"description": {"type": "string"}
								},
								"required": ["label"]
							}
						}
					},
					"required": ["header", "question", "options"]
				}
			}
		},
		"required": ["questions"]
	}`)
}

func (t *askUserQuestionTool) Execute(ctx context.Context, input json.RawMessage) *model.ToolResult {
	var in askUserQuestionInput
	if err := json.Unmarshal(input, &in); err != nil {
		return failure("invalid input: %v", err)
	}
	if len(in.Questions) == 0 {
		return failure("at least one question is required")
	}
	for i, q := range in.Questions {
		if q.Header == "" || q.Question == "" {
			return failure("question %d is missing header or question text", i+1)
		}
		if len(q.Options) == 0 {
			return failure("question %q has no options", q.Header)
		}
	}

	return &model.ToolResult{
		Success:           true,
		RequiresUserInput: true,
		Questions:         in.Questions,
		Message:           "Waiting for user input",
	}
}

func (t *askUserQuestionTool) Preview(input json.RawMessage) string {
	var in askUserQuestionInput
	if err := json.Unmarshal(input, &in); err != nil || len(in.Questions) == 0 {
		return "Ask the user a question"
	}
	if len(in.Questions) == 1 {
		return "Ask the user: " + in.Questions[0].Question
	}
	return fmt.Sprintf("Ask the user %d questions", len(in.Questions))
}
