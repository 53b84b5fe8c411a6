package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/infoquestai/infoquest/internal/decompose"
	"github.com/infoquestai/infoquest/internal/feedback"
	"github.com/infoquestai/infoquest/internal/judge"
	"github.com/infoquestai/infoquest/internal/state"
	"github.com/infoquestai/infoquest/pkg/models"
)

// fakePlanner returns scripted plans and records requests.
type fakePlanner struct {
	plans    []*models.Plan
	err      error
	requests []decompose.Request
}

func (f *fakePlanner) Decompose(_ context.Context, req decompose.Request) (*models.Plan, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	i := len(f.requests) - 1
	if i >= len(f.plans) {
		i = len(f.plans) - 1
	}
	return f.plans[i], nil
}

// fakeRunner marks every pending task of the current generation done.
type fakeRunner struct {
	calls int
	err   error
}

func (f *fakeRunner) RunGeneration(_ context.Context, plan *models.Plan) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for _, t := range plan.TasksInGeneration(plan.Generation) {
		if t.Status == models.TaskStatusPending {
			t.Status = models.TaskStatusDone
			t.Answer = "answer: " + t.Question
		}
	}
	return nil
}

// fakeEvaluator returns scripted outcomes, appending follow-ups itself
// when the outcome is insufficient.
type fakeEvaluator struct {
	outcomes []judge.Outcome
	calls    int
}

func (f *fakeEvaluator) Evaluate(_ context.Context, plan *models.Plan) (judge.Outcome, error) {
	out := f.outcomes[f.calls]
	f.calls++
	if !out.Sufficient {
		gen := plan.Generation + 1
		for _, t := range out.Added {
			t.Generation = gen
			t.Status = models.TaskStatusPending
			plan.Tasks = append(plan.Tasks, t)
		}
		plan.Generation = gen
		plan.RoundsRemaining--
	}
	return out, nil
}

type fakeAggregator struct {
	body string
	err  error
}

func (f *fakeAggregator) ComposeReport(_ context.Context, _ *models.Plan) (string, error) {
	return f.body, f.err
}

// memStore is an in-memory PlanStore.
type memStore struct {
	plans    map[string]*models.Plan
	statuses map[string]state.PlanStatus
}

func newMemStore() *memStore {
	return &memStore{plans: make(map[string]*models.Plan), statuses: make(map[string]state.PlanStatus)}
}

func (m *memStore) SavePlan(plan *models.Plan, status state.PlanStatus) error {
	m.plans[plan.ID] = plan
	m.statuses[plan.ID] = status
	return nil
}

func (m *memStore) GetPlan(id string) (*models.Plan, state.PlanStatus, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, "", fmt.Errorf("plan %s not found", id)
	}
	return p, m.statuses[id], nil
}

func (m *memStore) ListPlans() ([]state.PlanRecord, error) { return nil, nil }

func (m *memStore) UpdatePlanStatus(id string, status state.PlanStatus) error {
	if _, ok := m.plans[id]; !ok {
		return fmt.Errorf("plan %s not found", id)
	}
	m.statuses[id] = status
	return nil
}

func (m *memStore) DeletePlan(id string) error { return nil }

// scriptedReviewer returns commands in order.
type scriptedReviewer struct {
	commands []feedback.Command
	calls    int
}

func (r *scriptedReviewer) Review(_ context.Context, _ *models.Plan) (feedback.Command, error) {
	cmd := r.commands[r.calls]
	r.calls++
	return cmd, nil
}

func newPlan(id string, questions ...string) *models.Plan {
	now := time.Now().UTC()
	p := &models.Plan{
		ID:              id,
		MainQuestion:    "main question",
		Locale:          "en-US",
		RoundsRemaining: 3,
		FeedbackState:   models.FeedbackAwaitingReview,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i, q := range questions {
		p.Tasks = append(p.Tasks, &models.Task{
			ID: fmt.Sprintf("%s-t%d", id, i), Question: q,
			Kind: models.KindResearch, RequiresRetrieval: true,
			Status: models.TaskStatusPending,
		})
	}
	return p
}

type deps struct {
	planner    *fakePlanner
	runner     *fakeRunner
	evaluator  *fakeEvaluator
	aggregator *fakeAggregator
	store      *memStore
	reviewer   *scriptedReviewer
}

func newOrchestrator(t *testing.T, d deps) *Orchestrator {
	t.Helper()
	if d.aggregator == nil {
		d.aggregator = &fakeAggregator{body: "# Report"}
	}
	if d.store == nil {
		d.store = newMemStore()
	}
	cfg := Config{Locale: "en-US", MaxTasks: 5, MaxRounds: 3, OutputDir: t.TempDir()}
	return New(cfg, d.planner, feedback.NewGate(d.planner), d.runner, d.evaluator,
		d.aggregator, nil, d.store, d.reviewer)
}

func TestRunEndToEnd(t *testing.T) {
	d := deps{
		planner:   &fakePlanner{plans: []*models.Plan{newPlan("p1", "q1", "q2")}},
		runner:    &fakeRunner{},
		evaluator: &fakeEvaluator{outcomes: []judge.Outcome{{Sufficient: true}}},
		store:     newMemStore(),
		reviewer:  &scriptedReviewer{commands: []feedback.Command{{Action: feedback.ActionApprove}}},
	}
	o := newOrchestrator(t, d)

	path, err := o.Run(context.Background(), "main question")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("report not written: %v", err)
	}
	if d.store.statuses["p1"] != state.PlanCompleted {
		t.Errorf("stored status = %v", d.store.statuses["p1"])
	}
	if d.runner.calls != 1 {
		t.Errorf("runner calls = %d", d.runner.calls)
	}
	for _, task := range d.store.plans["p1"].Tasks {
		if task.Status != models.TaskStatusDone {
			t.Errorf("task %s status = %v", task.ID, task.Status)
		}
	}
}

func TestRunWithFollowUpRound(t *testing.T) {
	d := deps{
		planner: &fakePlanner{plans: []*models.Plan{newPlan("p1", "q1")}},
		runner:  &fakeRunner{},
		evaluator: &fakeEvaluator{outcomes: []judge.Outcome{
			{Sufficient: false, Added: []*models.Task{
				{ID: "f1", Question: "follow-up", Kind: models.KindResearch},
			}},
			{Sufficient: true},
		}},
		store:    newMemStore(),
		reviewer: &scriptedReviewer{commands: []feedback.Command{{Action: feedback.ActionApprove}}},
	}
	o := newOrchestrator(t, d)

	if _, err := o.Run(context.Background(), "main question"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.runner.calls != 2 {
		t.Errorf("runner calls = %d, want one per generation", d.runner.calls)
	}
	if d.evaluator.calls != 2 {
		t.Errorf("evaluator calls = %d", d.evaluator.calls)
	}

	final := d.store.plans["p1"]
	if final.Generation != 1 {
		t.Errorf("final generation = %d", final.Generation)
	}
	if len(final.Tasks) != 2 {
		t.Errorf("final task count = %d", len(final.Tasks))
	}
}

func TestRunAborted(t *testing.T) {
	d := deps{
		planner:   &fakePlanner{plans: []*models.Plan{newPlan("p1", "q1")}},
		runner:    &fakeRunner{},
		evaluator: &fakeEvaluator{},
		store:     newMemStore(),
		reviewer:  &scriptedReviewer{commands: []feedback.Command{{Action: feedback.ActionAbort}}},
	}
	o := newOrchestrator(t, d)

	_, err := o.Run(context.Background(), "main question")
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if d.store.statuses["p1"] != state.PlanAborted {
		t.Errorf("stored status = %v", d.store.statuses["p1"])
	}
	if d.runner.calls != 0 {
		t.Error("aborted plan must never execute")
	}
}

func TestRunEditThenApprove(t *testing.T) {
	initial := newPlan("p1", "q1")
	revised := newPlan("p2", "q1 revised", "q2 new")
	d := deps{
		planner:   &fakePlanner{plans: []*models.Plan{initial, revised}},
		runner:    &fakeRunner{},
		evaluator: &fakeEvaluator{outcomes: []judge.Outcome{{Sufficient: true}}},
		store:     newMemStore(),
		reviewer: &scriptedReviewer{commands: []feedback.Command{
			{Action: feedback.ActionEdit, EditText: "add a pricing angle"},
			{Action: feedback.ActionApprove},
		}},
	}
	o := newOrchestrator(t, d)

	if _, err := o.Run(context.Background(), "main question"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(d.planner.requests) != 2 {
		t.Fatalf("planner calls = %d", len(d.planner.requests))
	}
	if d.planner.requests[1].RevisionHint != "add a pricing angle" {
		t.Errorf("revision hint = %q", d.planner.requests[1].RevisionHint)
	}

	// The revised plan keeps the original identity.
	executed := d.store.plans["p1"]
	if executed == nil {
		t.Fatal("revised plan lost the original plan ID")
	}
	if len(executed.Tasks) != 2 {
		t.Errorf("executed plan has %d tasks, want the revision's 2", len(executed.Tasks))
	}
}

func TestRunDecompositionFailure(t *testing.T) {
	d := deps{
		planner:   &fakePlanner{err: errors.New("decomposition failed after retry")},
		runner:    &fakeRunner{},
		evaluator: &fakeEvaluator{},
		store:     newMemStore(),
		reviewer:  &scriptedReviewer{},
	}
	o := newOrchestrator(t, d)

	if _, err := o.Run(context.Background(), "main question"); err == nil {
		t.Fatal("expected planner failure to be fatal")
	}
	if d.runner.calls != 0 {
		t.Error("nothing may execute without a plan")
	}
}

func TestRunEnoughContextSkipsGateAndDispatch(t *testing.T) {
	plan := newPlan("p1")
	plan.HasEnoughContext = true
	d := deps{
		planner:    &fakePlanner{plans: []*models.Plan{plan}},
		runner:     &fakeRunner{},
		evaluator:  &fakeEvaluator{},
		aggregator: &fakeAggregator{body: "direct answer"},
		store:      newMemStore(),
		reviewer:   &scriptedReviewer{},
	}
	o := newOrchestrator(t, d)

	path, err := o.Run(context.Background(), "main question")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.runner.calls != 0 {
		t.Error("no tasks should run when context is already sufficient")
	}
	if d.reviewer.calls != 0 {
		t.Error("the gate should be skipped for an empty confident plan")
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "direct answer") {
		t.Errorf("report content = %q", data)
	}
}

func TestRunExecutionFailureMarksPlanFailed(t *testing.T) {
	d := deps{
		planner:   &fakePlanner{plans: []*models.Plan{newPlan("p1", "q1")}},
		runner:    &fakeRunner{err: errors.New("dispatcher context cancelled")},
		evaluator: &fakeEvaluator{},
		store:     newMemStore(),
		reviewer:  &scriptedReviewer{commands: []feedback.Command{{Action: feedback.ActionApprove}}},
	}
	o := newOrchestrator(t, d)

	if _, err := o.Run(context.Background(), "main question"); err == nil {
		t.Fatal("expected runner failure to surface")
	}
	if d.store.statuses["p1"] != state.PlanFailed {
		t.Errorf("stored status = %v", d.store.statuses["p1"])
	}
}

func TestResumeApproveRunsToCompletion(t *testing.T) {
	d := deps{
		planner:   &fakePlanner{plans: []*models.Plan{newPlan("unused")}},
		runner:    &fakeRunner{},
		evaluator: &fakeEvaluator{outcomes: []judge.Outcome{{Sufficient: true}}},
		store:     newMemStore(),
		reviewer:  &scriptedReviewer{},
	}
	suspended := newPlan("p9", "q1")
	if err := d.store.SavePlan(suspended, state.PlanAwaitingReview); err != nil {
		t.Fatal(err)
	}
	o := newOrchestrator(t, d)

	path, err := o.Resume(context.Background(), "p9", feedback.Command{Action: feedback.ActionApprove})
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if path == "" {
		t.Fatal("approved resume should produce a report")
	}
	if d.store.statuses["p9"] != state.PlanCompleted {
		t.Errorf("stored status = %v", d.store.statuses["p9"])
	}
}

func TestResumeEditResuspends(t *testing.T) {
	revised := newPlan("px", "new q")
	d := deps{
		planner:   &fakePlanner{plans: []*models.Plan{revised}},
		runner:    &fakeRunner{},
		evaluator: &fakeEvaluator{},
		store:     newMemStore(),
		reviewer:  &scriptedReviewer{},
	}
	suspended := newPlan("p9", "q1")
	if err := d.store.SavePlan(suspended, state.PlanAwaitingReview); err != nil {
		t.Fatal(err)
	}
	o := newOrchestrator(t, d)

	path, err := o.Resume(context.Background(), "p9",
		feedback.Command{Action: feedback.ActionEdit, EditText: "narrow the scope"})
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if path != "" {
		t.Error("edited plan must re-suspend, not run")
	}
	if d.store.statuses["p9"] != state.PlanAwaitingReview {
		t.Errorf("stored status = %v", d.store.statuses["p9"])
	}
	if d.runner.calls != 0 {
		t.Error("revised plan ran without approval")
	}
}

func TestResumeRejectsNonSuspendedPlan(t *testing.T) {
	d := deps{
		planner:   &fakePlanner{plans: []*models.Plan{newPlan("unused")}},
		runner:    &fakeRunner{},
		evaluator: &fakeEvaluator{},
		store:     newMemStore(),
		reviewer:  &scriptedReviewer{},
	}
	done := newPlan("p9", "q1")
	if err := d.store.SavePlan(done, state.PlanCompleted); err != nil {
		t.Fatal(err)
	}
	o := newOrchestrator(t, d)

	_, err := o.Resume(context.Background(), "p9", feedback.Command{Action: feedback.ActionApprove})
	var perr *feedback.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestRunEmitsEvents(t *testing.T) {
	d := deps{
		planner:   &fakePlanner{plans: []*models.Plan{newPlan("p1", "q1")}},
		runner:    &fakeRunner{},
		evaluator: &fakeEvaluator{outcomes: []judge.Outcome{{Sufficient: true}}},
		store:     newMemStore(),
		reviewer:  &scriptedReviewer{commands: []feedback.Command{{Action: feedback.ActionApprove}}},
	}
	o := newOrchestrator(t, d)

	if _, err := o.Run(context.Background(), "main question"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	seen := make(map[EventType]bool)
	for {
		select {
		case ev := <-o.Events():
			seen[ev.Type] = true
			continue
		default:
		}
		break
	}

	for _, want := range []EventType{EventPlanCreated, EventAwaitingReview,
		EventPlanApproved, EventGenerationStarted, EventJudgeVerdict, EventReportWritten} {
		if !seen[want] {
			t.Errorf("event %s never emitted", want)
		}
	}
}
