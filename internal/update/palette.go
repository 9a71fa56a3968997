package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/todo/internal/commands"
	"github.com/sandeepkv93/todo/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m Model) closePalette() Model {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if m.ctrl == nil {
		m.Status = StatusBar{Text: "no task controller", IsError: true}
		return m, nil
	}

	var next tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			task := model.Task{Title: a.Title, DueDate: m.today()}
			next = waitForOutcomeCmd(m.ctrl.Insert(task), false)
			return commands.Result{Message: fmt.Sprintf("adding task: %s", a.Title)}, nil
		},
		Edit: func(e commands.EditArgs) (commands.Result, error) {
			if _, ok := m.ctrl.Task(e.ID); !ok {
				return commands.Result{}, notFound(e.ID)
			}
			next = func() tea.Msg { return OpenFormMsg{Route: Route{TaskID: e.ID, Edit: true}} }
			return commands.Result{Message: fmt.Sprintf("editing task %d", e.ID)}, nil
		},
		Delete: func(d commands.DeleteArgs) (commands.Result, error) {
			task, ok := m.ctrl.Task(d.ID)
			if !ok {
				return commands.Result{}, notFound(d.ID)
			}
			next = m.deleteTask(task)
			return commands.Result{Message: fmt.Sprintf("deleting task %d", d.ID)}, nil
		},
		Due: func(d commands.DueArgs) (commands.Result, error) {
			task, ok := m.ctrl.Task(d.ID)
			if !ok {
				return commands.Result{}, notFound(d.ID)
			}
			due, err := model.ParseDue(d.When, m.today())
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
			}
			task.DueDate = due
			next = waitForOutcomeCmd(m.ctrl.Update(task), false)
			return commands.Result{Message: fmt.Sprintf("task %d due %s", d.ID, model.FormatDue(due))}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command Failed", err.Error(), "error")
		var ce *commands.CommandError
		if !errors.As(err, &ce) {
			m.LastError = err
		}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	m.notify("Command", res.Message, "info")
	return m, next
}

func notFound(id int64) error {
	return &commands.CommandError{Code: commands.ErrCodeNotFound, Message: fmt.Sprintf("task %d not found", id)}
}
