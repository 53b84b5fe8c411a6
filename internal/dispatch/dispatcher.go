package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/infoquestai/infoquest/pkg/models"
)

// Dispatcher runs one generation of plan tasks. Research tasks run
// concurrently up to the worker limit; analysis and processing tasks run
// afterwards, sequentially, so each sees the findings of everything
// completed before it.
type Dispatcher struct {
	registry    *Registry
	maxWorkers  int
	taskTimeout time.Duration
}

// NewDispatcher creates a dispatcher over the given executor registry.
func NewDispatcher(registry *Registry, maxWorkers int, taskTimeout time.Duration) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Dispatcher{registry: registry, maxWorkers: maxWorkers, taskTimeout: taskTimeout}
}

// RunGeneration executes all pending tasks of the plan's current
// generation. Individual task failures are absorbed: the task is marked
// failed with an empty answer and the generation continues. The returned
// error is non-nil only for dispatcher-level failures such as context
// cancellation.
func (d *Dispatcher) RunGeneration(ctx context.Context, plan *models.Plan) error {
	var research, dependent []*models.Task
	for _, t := range plan.TasksInGeneration(plan.Generation) {
		if t.Status != models.TaskStatusPending {
			continue
		}
		if t.Kind == models.KindResearch {
			research = append(research, t)
		} else {
			dependent = append(dependent, t)
		}
	}
	if len(research) == 0 && len(dependent) == 0 {
		return nil
	}

	log.Printf("[dispatch] generation %d: %d research, %d dependent tasks",
		plan.Generation, len(research), len(dependent))

	// Research phase: concurrent, results land in per-index slots and are
	// applied only after the whole phase settles.
	type slot struct {
		result TaskResult
		err    error
	}
	slots := make([]slot, len(research))

	g := new(errgroup.Group)
	g.SetLimit(d.maxWorkers)
	for i, t := range research {
		i, t := i, t
		t.Status = models.TaskStatusRunning
		g.Go(func() error {
			res, err := d.executeOne(ctx, plan, t, nil)
			slots[i] = slot{result: res, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, t := range research {
		d.apply(t, slots[i].result, slots[i].err)
	}

	// Dependent phase: sequential in plan order, each task sees all
	// findings accumulated so far.
	for _, t := range dependent {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.Status = models.TaskStatusRunning
		res, err := d.executeOne(ctx, plan, t, collectFindings(plan))
		d.apply(t, res, err)
	}

	plan.UpdatedAt = time.Now().UTC()
	return nil
}

// executeOne runs a single task under its timeout.
func (d *Dispatcher) executeOne(ctx context.Context, plan *models.Plan, t *models.Task, findings []Finding) (TaskResult, error) {
	ex, ok := d.registry.Lookup(t.Kind)
	if !ok {
		return TaskResult{}, &TaskExecutionError{TaskID: t.ID, Question: t.Question,
			Err: fmt.Errorf("no executor for kind %q", t.Kind)}
	}

	tctx := ctx
	if d.taskTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, d.taskTimeout)
		defer cancel()
	}

	res, err := ex.Execute(tctx, TaskInput{
		Task:          t,
		MainQuestion:  plan.MainQuestion,
		Locale:        plan.Locale,
		PriorFindings: findings,
	})
	if err != nil {
		return TaskResult{}, &TaskExecutionError{TaskID: t.ID, Question: t.Question, Err: err}
	}
	return res, nil
}

// apply records a task outcome on the plan.
func (d *Dispatcher) apply(t *models.Task, res TaskResult, err error) {
	if err != nil {
		log.Printf("[dispatch] %v", err)
		t.Status = models.TaskStatusFailed
		t.Answer = ""
		t.Evidence = nil
		return
	}
	t.Status = models.TaskStatusDone
	t.Answer = res.Answer
	t.Evidence = res.Evidence
}

// collectFindings returns the answers of all done tasks in plan order.
func collectFindings(plan *models.Plan) []Finding {
	var out []Finding
	for _, t := range plan.Tasks {
		if t.Status == models.TaskStatusDone && t.Answer != "" {
			out = append(out, Finding{Question: t.Question, Answer: t.Answer, Evidence: t.Evidence})
		}
	}
	return out
}
