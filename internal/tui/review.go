// Package tui provides the interactive plan review screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/infoquestai/infoquest/internal/feedback"
	"github.com/infoquestai/infoquest/pkg/models"
)

// ErrReviewCancelled is returned when the reviewer quits without deciding.
var ErrReviewCancelled = errors.New("review cancelled")

// Reviewer runs the interactive review screen for each suspended plan.
type Reviewer struct{}

// Review blocks in the terminal UI until the reviewer decides.
func (Reviewer) Review(ctx context.Context, plan *models.Plan) (feedback.Command, error) {
	m := newReviewModel(plan)
	p := tea.NewProgram(m, tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return feedback.Command{}, err
	}

	rm, ok := final.(reviewModel)
	if !ok || !rm.decided {
		return feedback.Command{}, ErrReviewCancelled
	}
	return rm.command, nil
}

// reviewModel is the bubbletea model for one review pass.
type reviewModel struct {
	plan *models.Plan

	editing bool
	input   textinput.Model

	decided bool
	command feedback.Command

	titleStyle  lipgloss.Style
	kindStyle   lipgloss.Style
	promptStyle lipgloss.Style
	dimStyle    lipgloss.Style
}

func newReviewModel(plan *models.Plan) reviewModel {
	ti := textinput.New()
	ti.Placeholder = "describe the changes you want"
	ti.CharLimit = 500
	ti.Width = 70

	return reviewModel{
		plan:  plan,
		input: ti,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1),
		kindStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")),
		promptStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
	}
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.editing {
		switch key.String() {
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.decided = true
			m.command = feedback.Command{Action: feedback.ActionEdit, EditText: text}
			return m, tea.Quit
		case "esc":
			m.editing = false
			m.input.Blur()
			m.input.SetValue("")
			return m, nil
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	switch key.String() {
	case "a", "y":
		m.decided = true
		m.command = feedback.Command{Action: feedback.ActionApprove}
		return m, tea.Quit
	case "e":
		m.editing = true
		m.input.Focus()
		return m, textinput.Blink
	case "x", "n":
		m.decided = true
		m.command = feedback.Command{Action: feedback.ActionAbort}
		return m, tea.Quit
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m reviewModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.titleStyle.Render("Plan Review") + "\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s\n", m.plan.MainQuestion))
	if m.plan.Title != "" {
		sb.WriteString(fmt.Sprintf("Title:    %s\n", m.plan.Title))
	}
	sb.WriteString(m.dimStyle.Render(fmt.Sprintf("Plan %s, %d re-planning rounds budgeted",
		m.plan.ID, m.plan.RoundsRemaining)) + "\n\n")

	for i, t := range m.plan.Tasks {
		sb.WriteString(fmt.Sprintf("%2d. %s %s\n", i+1,
			m.kindStyle.Render("["+string(t.Kind)+"]"), t.Question))
		if t.Description != "" {
			sb.WriteString(m.dimStyle.Render("      "+t.Description) + "\n")
		}
	}

	sb.WriteString("\n")
	if m.editing {
		sb.WriteString(m.promptStyle.Render("Revision instructions") + "\n")
		sb.WriteString(m.input.View() + "\n")
		sb.WriteString(m.dimStyle.Render("enter to submit, esc to cancel") + "\n")
	} else {
		sb.WriteString(m.promptStyle.Render("[a]pprove  [e]dit  [x] abort") + "\n")
	}
	return sb.String()
}
