package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/todo/internal/controller"
	"github.com/sandeepkv93/todo/internal/model"
)

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.moveCursor(-len(m.Tasks))
	case "G", "end":
		m.moveCursor(len(m.Tasks))
	case m.Keys.Add:
		return m.openForm(Route{}), nil
	case m.Keys.Edit, "enter":
		if m.SelectedTaskID == 0 {
			return m, nil
		}
		return m.openForm(Route{TaskID: m.SelectedTaskID, Edit: true}), nil
	case m.Keys.Delete:
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.deleteTask(task)
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
	case m.Keys.Quit:
		return m.quit()
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if len(m.Tasks) == 0 {
		return
	}
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor >= len(m.Tasks) {
		m.Cursor = len(m.Tasks) - 1
	}
	m.SelectedTaskID = m.Tasks[m.Cursor].ID
}

func (m Model) selectedTask() (model.Task, bool) {
	if m.SelectedTaskID == 0 {
		return model.Task{}, false
	}
	return model.Find(m.Tasks, m.SelectedTaskID)
}

func (m Model) deleteTask(task model.Task) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	return waitForOutcomeCmd(m.ctrl.Delete(task), false)
}

func (m Model) handleOutcome(msg OutcomeMsg) (Model, tea.Cmd) {
	o := msg.Outcome
	if msg.FromForm {
		m.Form.Saving = false
	}
	if !o.OK() {
		m.LastError = o.Err
		m.logger.Error("task mutation failed", outcomeFields(o)...)
	}

	var text string
	isErr := false
	switch o.Op {
	case controller.OpDelete:
		switch {
		case !o.OK():
			text, isErr = msgDeleteFailed, true
		case o.Affected == 0:
			text = msgGone
		default:
			text = msgDeleted
		}
	case controller.OpInsert:
		text = msgSaved
		if !o.OK() {
			text, isErr = msgSaveFailed, true
		}
	case controller.OpUpdate:
		switch {
		case !o.OK():
			text, isErr = msgSaveFailed, true
		case o.Affected == 0:
			text, isErr = msgGone, true
		default:
			text = msgUpdated
		}
	default:
		text = fmt.Sprintf("%s finished", o.Op)
	}

	m.Status = StatusBar{Text: text, IsError: isErr}
	m.notify("Task", text, levelFromError(isErr))
	back := msg.FromForm && m.Screen == ScreenForm
	return m, clearStatusAfter(m.statusTimeout, back)
}
