package decompose

import (
	"errors"
	"testing"

	"github.com/infoquestai/infoquest/pkg/models"
)

func TestParseResponseObject(t *testing.T) {
	raw := `Here is the plan you asked for:
{
  "locale": "fr-FR",
  "has_enough_context": false,
  "thought": "split by source type",
  "title": "Battery market outlook",
  "questions": [
    {"question": "What is the current global EV battery production capacity?", "description": "figures by region", "step_type": "research", "need_search": true},
    {"question": "Compare chemistries by cost per kWh", "description": "LFP vs NMC", "step_type": "analysis", "need_search": false},
    {"question": "Who are the top five cell manufacturers?", "description": "by shipped GWh", "step_type": "research", "need_search": true}
  ]
}
Let me know if you need changes.`

	p, err := parseResponse(raw, 5)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if p.title != "Battery market outlook" {
		t.Errorf("title = %q", p.title)
	}
	if p.locale != "fr-FR" {
		t.Errorf("locale = %q", p.locale)
	}
	if len(p.tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(p.tasks))
	}

	// Research tasks come first, preserving their relative order.
	if p.tasks[0].Kind != models.KindResearch || p.tasks[1].Kind != models.KindResearch {
		t.Errorf("research tasks not first: %v, %v", p.tasks[0].Kind, p.tasks[1].Kind)
	}
	if p.tasks[2].Kind != models.KindAnalysis {
		t.Errorf("expected analysis last, got %v", p.tasks[2].Kind)
	}
	if p.tasks[0].Question != "What is the current global EV battery production capacity?" {
		t.Errorf("research order not preserved: %q", p.tasks[0].Question)
	}
}

func TestParseResponseBareArray(t *testing.T) {
	raw := `[
  {"question": "What changed in the 2024 ruling?", "step_type": "research", "need_search": false}
]`

	p, err := parseResponse(raw, 5)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(p.tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(p.tasks))
	}
	// Retrieval is derived from the kind even when the generator says otherwise.
	if !p.tasks[0].RequiresRetrieval {
		t.Error("research task should require retrieval")
	}
	if p.tasks[0].Status != models.TaskStatusPending {
		t.Errorf("status = %v", p.tasks[0].Status)
	}
	if p.tasks[0].ID == "" {
		t.Error("task ID not assigned")
	}
}

func TestParseResponseContractViolations(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		max    int
		reason Reason
	}{
		{
			name:   "no JSON at all",
			raw:    "I cannot decompose this question.",
			max:    5,
			reason: ReasonUnparsable,
		},
		{
			name:   "malformed object",
			raw:    `{"questions": [{"question": "x", "step_type": research}]}`,
			max:    5,
			reason: ReasonUnparsable,
		},
		{
			name:   "zero tasks without enough context",
			raw:    `{"has_enough_context": false, "questions": []}`,
			max:    5,
			reason: ReasonEmptyPlan,
		},
		{
			name: "over the cap",
			raw: `[{"question":"a","step_type":"research"},{"question":"b","step_type":"research"},
{"question":"c","step_type":"research"}]`,
			max:    2,
			reason: ReasonTooManyTasks,
		},
		{
			name:   "unrecognized kind",
			raw:    `[{"question": "a", "step_type": "synthesis"}]`,
			max:    5,
			reason: ReasonInvalidKind,
		},
		{
			name:   "blank question text",
			raw:    `[{"question": "   ", "step_type": "research"}]`,
			max:    5,
			reason: ReasonEmptyPlan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse(tt.raw, tt.max)
			var derr *DecompositionError
			if !errors.As(err, &derr) {
				t.Fatalf("expected DecompositionError, got %v", err)
			}
			if derr.Reason != tt.reason {
				t.Errorf("reason = %s, want %s", derr.Reason, tt.reason)
			}
		})
	}
}

func TestParseResponseHasEnoughContext(t *testing.T) {
	raw := `{"has_enough_context": true, "title": "Direct answer", "questions": []}`

	p, err := parseResponse(raw, 5)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if !p.hasEnoughContext {
		t.Error("hasEnoughContext not set")
	}
	if len(p.tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(p.tasks))
	}
}

func TestParseResponseDropsDuplicateQuestions(t *testing.T) {
	raw := `[
  {"question": "What does a heat pump cost?", "description": "installed price", "step_type": "research"},
  {"question": "what does a heat pump cost", "description": "restated", "step_type": "research"},
  {"question": "How long does installation take?", "step_type": "research"}
]`

	p, err := parseResponse(raw, 5)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(p.tasks) != 2 {
		t.Fatalf("expected 2 tasks after dedupe, got %d", len(p.tasks))
	}
	// The first occurrence wins, description included.
	if p.tasks[0].Question != "What does a heat pump cost?" {
		t.Errorf("kept question = %q", p.tasks[0].Question)
	}
	if p.tasks[0].Description != "installed price" {
		t.Errorf("kept description = %q", p.tasks[0].Description)
	}
	if p.tasks[1].Question != "How long does installation take?" {
		t.Errorf("second task = %q", p.tasks[1].Question)
	}
}

func TestParseResponseKindCaseInsensitive(t *testing.T) {
	raw := `[{"question": "a", "step_type": " Research "}]`

	p, err := parseResponse(raw, 5)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if p.tasks[0].Kind != models.KindResearch {
		t.Errorf("kind = %v", p.tasks[0].Kind)
	}
}

func TestReorderResearchFirstStable(t *testing.T) {
	mk := func(q string, k models.TaskKind) *models.Task {
		return &models.Task{Question: q, Kind: k}
	}
	in := []*models.Task{
		mk("a1", models.KindAnalysis),
		mk("r1", models.KindResearch),
		mk("p1", models.KindProcessing),
		mk("r2", models.KindResearch),
		mk("a2", models.KindAnalysis),
	}

	out := reorderResearchFirst(in)
	want := []string{"r1", "r2", "a1", "p1", "a2"}
	for i, q := range want {
		if out[i].Question != q {
			t.Errorf("position %d: got %q, want %q", i, out[i].Question, q)
		}
	}
}
