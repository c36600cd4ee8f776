package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/sutra/internal/observability"
	"github.com/rahul/sutra/internal/payload"
	"github.com/rahul/sutra/internal/plan"
	"github.com/rahul/sutra/internal/tools"
)

// Planner asks the model to propose a tool plan for an objective. The
// model's output is treated as hostile input: whether it arrives as a tool
// call or as fenced prose, it goes through normalization and structural
// repair before anything downstream sees it.
type Planner struct {
	Model   llms.Model
	Prompts *PromptManager
	Tools   *tools.Registry
	Logger  *observability.Logger
}

func NewPlanner(model llms.Model, prompts *PromptManager, registry *tools.Registry, logger *observability.Logger) *Planner {
	return &Planner{
		Model:   model,
		Prompts: prompts,
		Tools:   registry,
		Logger:  logger,
	}
}

type proposedStep struct {
	Tool        string          `json:"tool"`
	Args        json.RawMessage `json:"args"`
	Description string          `json:"description"`
}

type proposal struct {
	Steps []proposedStep `json:"steps"`
}

// BuildPlan produces a ready-to-run plan for the objective.
func (p *Planner) BuildPlan(ctx context.Context, planID string, objective string) (*plan.Plan, error) {
	observability.SetStatus(observability.RolePlanning, objective)
	defer observability.SetStatus(observability.RoleIdle, "")

	plannerPrompt, err := p.Prompts.GetPlannerPrompt()
	if err != nil {
		return nil, fmt.Errorf("failed to load planner prompt: %w", err)
	}

	var toolDescriptions []string
	for _, name := range p.Tools.Names() {
		t, _ := p.Tools.Resolve(name)
		toolDescriptions = append(toolDescriptions, fmt.Sprintf("- %s: %s", t.Name(), t.Description()))
	}
	fullPrompt := fmt.Sprintf("%s\n\n## Available Tools:\n%s", plannerPrompt, strings.Join(toolDescriptions, "\n"))

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(fullPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(objective)},
		},
	}

	resp, err := p.Model.GenerateContent(ctx, messages, llms.WithTools(plannerTools))
	if err != nil {
		return nil, err
	}
	choice := resp.Choices[0]

	var raw string
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall.Name == "propose_plan" {
			raw = tc.FunctionCall.Arguments
			break
		}
	}
	if raw == "" {
		// Some models ignore the tool and emit the plan as prose, usually
		// inside a code fence. The normalizer handles both.
		raw = choice.Content
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("planner returned neither a plan tool call nor content")
	}

	if p.Logger != nil {
		p.Logger.LogLLM(planID, objective, choice.Content, choice.ToolCalls)
	}

	return DecodePlan(planID, raw)
}

// DecodePlan turns raw model output into a plan, repairing structural
// defects on the way. Step arguments are re-serialized from the repaired
// value and marked exact: they are already valid JSON, and another pass of
// prefix stripping could only corrupt them.
func DecodePlan(planID string, raw string) (*plan.Plan, error) {
	resolved, err := payload.Resolve(payload.New(raw, payload.ShapeJSON))
	if err != nil {
		return nil, fmt.Errorf("plan output unusable: %w", err)
	}

	var prop proposal
	if err := json.Unmarshal([]byte(resolved.Text), &prop); err != nil {
		return nil, fmt.Errorf("failed to decode plan steps: %w", err)
	}
	if len(prop.Steps) == 0 {
		return nil, fmt.Errorf("plan contains no steps")
	}

	specs := make([]plan.StepSpec, 0, len(prop.Steps))
	for _, s := range prop.Steps {
		if s.Tool == "" {
			return nil, fmt.Errorf("plan step missing tool name")
		}
		args := string(s.Args)
		if args == "" {
			args = "{}"
		}
		specs = append(specs, plan.StepSpec{
			Tool: s.Tool,
			Args: payload.NewExact(args, payload.ShapeJSON),
		})
	}
	return plan.New(planID, specs), nil
}

// plannerTools defines the single propose_plan function the model is asked
// to call.
var plannerTools = []llms.Tool{
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "propose_plan",
			Description: "Submit a structured plan consisting of ordered tool invocations.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"steps": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"tool": map[string]any{
									"type":        "string",
									"description": "Name of a registered tool",
								},
								"args": map[string]any{
									"type":        "object",
									"description": "Arguments for the tool, matching its parameter schema",
								},
								"description": map[string]any{
									"type": "string",
								},
							},
							"required": []string{"tool", "args"},
						},
					},
				},
				"required": []string{"steps"},
			},
		},
	},
}
