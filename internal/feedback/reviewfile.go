package feedback

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/infoquestai/infoquest/pkg/models"
)

// reviewTask is the task view written into a review file.
type reviewTask struct {
	Question    string `yaml:"question"`
	Description string `yaml:"description,omitempty"`
	Kind        string `yaml:"kind"`
}

// reviewDocument is the on-disk review surface. The reviewer fills in the
// decision field; everything else is informational.
type reviewDocument struct {
	PlanID       string       `yaml:"plan_id"`
	MainQuestion string       `yaml:"main_question"`
	Title        string       `yaml:"title,omitempty"`
	Tasks        []reviewTask `yaml:"tasks"`
	// Decision accepts: approve | edit: <instructions> | abort
	Decision string `yaml:"decision"`
}

// WriteReviewFile renders the plan into a YAML file the reviewer edits to
// deliver a decision.
func WriteReviewFile(path string, plan *models.Plan) error {
	doc := reviewDocument{
		PlanID:       plan.ID,
		MainQuestion: plan.MainQuestion,
		Title:        plan.Title,
	}
	for _, t := range plan.Tasks {
		doc.Tasks = append(doc.Tasks, reviewTask{
			Question:    t.Question,
			Description: t.Description,
			Kind:        string(t.Kind),
		})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal review file: %w", err)
	}

	header := "# Review the plan below, then set the decision field to one of:\n" +
		"#   approve\n" +
		"#   edit: <instructions for the revised plan>\n" +
		"#   abort\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("write review file: %w", err)
	}
	return nil
}

// WaitForDecision watches the review file until the reviewer writes a
// well-formed decision or the context ends. Malformed decisions are
// logged and the wait continues.
func WaitForDecision(ctx context.Context, path string) (Command, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Command{}, fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files rather than write in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return Command{}, fmt.Errorf("watch review dir: %w", err)
	}

	// The decision may already be present before the first event.
	if cmd, ok := readDecision(path); ok {
		return cmd, nil
	}

	base := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return Command{}, ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return Command{}, fmt.Errorf("watcher closed")
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if cmd, ok := readDecision(path); ok {
				return cmd, nil
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return Command{}, fmt.Errorf("watcher closed")
			}
			log.Printf("[feedback] watch error on %s: %v", path, werr)
		}
	}
}

// readDecision parses the review file and returns a command when the
// decision field holds one.
func readDecision(path string) (Command, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Command{}, false
	}

	var doc reviewDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		log.Printf("[feedback] review file unreadable, still waiting: %v", err)
		return Command{}, false
	}
	if strings.TrimSpace(doc.Decision) == "" {
		return Command{}, false
	}

	cmd, err := ParseCommand(doc.Decision)
	if err != nil {
		log.Printf("[feedback] %v, still waiting", err)
		return Command{}, false
	}
	return cmd, true
}
