package decompose

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/infoquestai/infoquest/pkg/models"
)

// generatedTask is the JSON structure the generator returns for one sub-question.
type generatedTask struct {
	Question    string `json:"question"`
	Description string `json:"description"`
	Kind        string `json:"step_type"`
	NeedSearch  bool   `json:"need_search"`
}

// generatedPlan is the object form of a generator response.
type generatedPlan struct {
	Locale           string          `json:"locale"`
	HasEnoughContext bool            `json:"has_enough_context"`
	Thought          string          `json:"thought"`
	Title            string          `json:"title"`
	Questions        []generatedTask `json:"questions"`
}

// parsed holds the validated decomposition before plan assembly.
type parsed struct {
	title            string
	locale           string
	hasEnoughContext bool
	tasks            []*models.Task
}

// parseResponse extracts and validates the decomposition from raw generator
// output. The payload may be a bare JSON array of tasks or an object with a
// questions field, surrounded by arbitrary prose.
func parseResponse(raw string, maxTasks int) (*parsed, error) {
	payload, isObject, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var gp generatedPlan
	if isObject {
		if err := json.Unmarshal([]byte(payload), &gp); err != nil {
			return nil, &DecompositionError{Reason: ReasonUnparsable, Detail: fmt.Sprintf("unmarshal object: %v", err)}
		}
	} else {
		if err := json.Unmarshal([]byte(payload), &gp.Questions); err != nil {
			return nil, &DecompositionError{Reason: ReasonUnparsable, Detail: fmt.Sprintf("unmarshal array: %v", err)}
		}
	}

	if len(gp.Questions) == 0 && !gp.HasEnoughContext {
		return nil, &DecompositionError{Reason: ReasonEmptyPlan, Detail: "generator returned zero tasks"}
	}
	if maxTasks > 0 && len(gp.Questions) > maxTasks {
		return nil, &DecompositionError{
			Reason: ReasonTooManyTasks,
			Detail: fmt.Sprintf("generator returned %d tasks, cap is %d", len(gp.Questions), maxTasks),
		}
	}

	now := time.Now().UTC()
	tasks := make([]*models.Task, 0, len(gp.Questions))
	seen := make(map[string]bool, len(gp.Questions))
	for _, gt := range gp.Questions {
		kind := models.TaskKind(strings.ToLower(strings.TrimSpace(gt.Kind)))
		if !kind.Valid() {
			return nil, &DecompositionError{
				Reason: ReasonInvalidKind,
				Detail: fmt.Sprintf("unrecognized kind %q for question %q", gt.Kind, gt.Question),
			}
		}
		if strings.TrimSpace(gt.Question) == "" {
			return nil, &DecompositionError{Reason: ReasonEmptyPlan, Detail: "task with empty question text"}
		}
		// Generators occasionally restate a question with different casing
		// or punctuation; keep the first occurrence only.
		norm := models.NormalizeQuestion(gt.Question)
		if seen[norm] {
			continue
		}
		seen[norm] = true

		tasks = append(tasks, &models.Task{
			ID:          uuid.New().String(),
			Question:    strings.TrimSpace(gt.Question),
			Description: strings.TrimSpace(gt.Description),
			Kind:        kind,
			// Retrieval follows the kind, not the generator's claim.
			RequiresRetrieval: kind == models.KindResearch,
			Status:            models.TaskStatusPending,
			CreatedAt:         now,
		})
	}

	return &parsed{
		title:            strings.TrimSpace(gp.Title),
		locale:           strings.TrimSpace(gp.Locale),
		hasEnoughContext: gp.HasEnoughContext,
		tasks:            reorderResearchFirst(tasks),
	}, nil
}

// extractJSON locates the outermost JSON payload in free-form text.
// Returns the payload and whether it is an object.
func extractJSON(raw string) (string, bool, error) {
	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")

	if objStart == -1 && arrStart == -1 {
		return "", false, &DecompositionError{Reason: ReasonUnparsable, Detail: preview(raw)}
	}

	// Prefer whichever opens first
	if objStart != -1 && (arrStart == -1 || objStart < arrStart) {
		end := strings.LastIndex(raw, "}")
		if end <= objStart {
			return "", false, &DecompositionError{Reason: ReasonUnparsable, Detail: preview(raw)}
		}
		return raw[objStart : end+1], true, nil
	}

	end := strings.LastIndex(raw, "]")
	if end <= arrStart {
		return "", false, &DecompositionError{Reason: ReasonUnparsable, Detail: preview(raw)}
	}
	return raw[arrStart : end+1], false, nil
}

// reorderResearchFirst moves all research tasks ahead of analysis/processing
// tasks, preserving relative order within each group. This is structural
// normalization of generator output, not a semantic judgment.
func reorderResearchFirst(tasks []*models.Task) []*models.Task {
	research := make([]*models.Task, 0, len(tasks))
	dependent := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Kind == models.KindResearch {
			research = append(research, t)
		} else {
			dependent = append(dependent, t)
		}
	}
	return append(research, dependent...)
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		s = s[:200] + "... (truncated)"
	}
	return fmt.Sprintf("no JSON payload in response: %q", s)
}
