package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/infoquestai/infoquest/internal/dispatch"
	"github.com/infoquestai/infoquest/internal/search"
	"github.com/infoquestai/infoquest/pkg/models"
)

// fakeCompleter echoes a fixed answer and records prompts.
type fakeCompleter struct {
	answer string
	err    error
	system string
	user   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system = system
	f.user = user
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeSearcher struct {
	results []search.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]search.Result, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func researchInput() dispatch.TaskInput {
	return dispatch.TaskInput{
		Task: &models.Task{
			ID:       "t1",
			Question: "What was global PV capacity added in 2025?",
			Kind:     models.KindResearch,
		},
		MainQuestion: "How fast is solar growing?",
		Locale:       "en-US",
	}
}

func TestResearchExecutor(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{URL: "https://example.com/a", Title: "IEA report", Content: "Capacity additions reached 600 GW."},
		{URL: "https://example.com/b", Title: "BNEF brief", Content: "Installations grew 30% year over year."},
	}}
	completer := &fakeCompleter{answer: "  About 600 GW was added. "}
	ex := NewResearchExecutor(completer, searcher)

	if ex.Kind() != models.KindResearch {
		t.Errorf("kind = %v", ex.Kind())
	}

	res, err := ex.Execute(context.Background(), researchInput())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Answer != "About 600 GW was added." {
		t.Errorf("answer = %q", res.Answer)
	}
	if len(res.Evidence) != 2 {
		t.Fatalf("expected 2 evidence sources, got %d", len(res.Evidence))
	}
	if res.Evidence[0].URL != "https://example.com/a" {
		t.Errorf("evidence URL = %q", res.Evidence[0].URL)
	}

	if len(searcher.queries) != 1 || searcher.queries[0] != "What was global PV capacity added in 2025?" {
		t.Errorf("queries = %v", searcher.queries)
	}
	// Search content reaches the synthesis prompt.
	if !strings.Contains(completer.user, "Capacity additions reached 600 GW.") {
		t.Error("search content missing from synthesis prompt")
	}
	if !strings.Contains(completer.user, "How fast is solar growing?") {
		t.Error("main question missing from synthesis prompt")
	}
}

func TestResearchExecutorSearchFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("quota exceeded")}
	ex := NewResearchExecutor(&fakeCompleter{answer: "x"}, searcher)

	_, err := ex.Execute(context.Background(), researchInput())
	if err == nil {
		t.Fatal("expected search failure to fail the task")
	}
}

func TestResearchExecutorEmptyResults(t *testing.T) {
	completer := &fakeCompleter{answer: "The search returned nothing relevant."}
	ex := NewResearchExecutor(completer, &fakeSearcher{})

	res, err := ex.Execute(context.Background(), researchInput())
	if err != nil {
		t.Fatalf("empty results must not fail the task: %v", err)
	}
	if len(res.Evidence) != 0 {
		t.Errorf("expected no evidence, got %d", len(res.Evidence))
	}
	if !strings.Contains(completer.user, "(no results)") {
		t.Error("prompt should flag the empty result set")
	}
}

func TestAnalysisExecutorUsesFindings(t *testing.T) {
	completer := &fakeCompleter{answer: "Growth is accelerating."}
	ex := NewAnalysisExecutor(completer)

	if ex.Kind() != models.KindAnalysis {
		t.Errorf("kind = %v", ex.Kind())
	}

	in := dispatch.TaskInput{
		Task:         &models.Task{ID: "t2", Question: "Is growth accelerating?", Kind: models.KindAnalysis},
		MainQuestion: "How fast is solar growing?",
		Locale:       "en-US",
		PriorFindings: []dispatch.Finding{
			{Question: "capacity 2024", Answer: "450 GW added"},
			{Question: "capacity 2025", Answer: "600 GW added"},
		},
	}

	res, err := ex.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Answer != "Growth is accelerating." {
		t.Errorf("answer = %q", res.Answer)
	}
	for _, want := range []string{"450 GW added", "600 GW added", "Is growth accelerating?"} {
		if !strings.Contains(completer.user, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalysisExecutorNoFindings(t *testing.T) {
	completer := &fakeCompleter{answer: "No evidence available."}
	ex := NewAnalysisExecutor(completer)

	_, err := ex.Execute(context.Background(), dispatch.TaskInput{
		Task:         &models.Task{ID: "t2", Question: "q", Kind: models.KindAnalysis},
		MainQuestion: "m",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(completer.user, "no usable answers") {
		t.Error("prompt should flag the empty findings set")
	}
}

func TestProcessingExecutor(t *testing.T) {
	completer := &fakeCompleter{answer: "| year | GW |\n|---|---|\n| 2024 | 450 |"}
	ex := NewProcessingExecutor(completer)

	if ex.Kind() != models.KindProcessing {
		t.Errorf("kind = %v", ex.Kind())
	}

	res, err := ex.Execute(context.Background(), dispatch.TaskInput{
		Task:          &models.Task{ID: "t3", Question: "Tabulate additions by year", Kind: models.KindProcessing},
		MainQuestion:  "m",
		Locale:        "en-US",
		PriorFindings: []dispatch.Finding{{Question: "capacity 2024", Answer: "450 GW added"}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(res.Answer, "| 2024 | 450 |") {
		t.Errorf("answer = %q", res.Answer)
	}
}

func TestExecutorCompleterFailure(t *testing.T) {
	ex := NewAnalysisExecutor(&fakeCompleter{err: errors.New("overloaded")})
	_, err := ex.Execute(context.Background(), dispatch.TaskInput{
		Task: &models.Task{ID: "t", Question: "q", Kind: models.KindAnalysis},
	})
	if err == nil {
		t.Fatal("expected completer error to propagate")
	}
}
