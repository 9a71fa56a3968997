package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/todo/internal/model"
)

// openForm prepares the add/edit screen. Editing looks the task up in the last
// delivered list, so a task that has not shown up yet cannot be edited.
func (m Model) openForm(route Route) Model {
	form := FormState{Route: route, Due: m.today(), Focus: FieldTitle}
	title, desc := "", ""
	if route.Edit {
		task, ok := m.lookup(route.TaskID)
		if !ok {
			m.Status = StatusBar{Text: msgGone, IsError: true}
			return m
		}
		form.Original = task
		form.Due = task.DueDate
		title, desc = task.Title, task.Description
	}

	m.Screen = ScreenForm
	m.Form = form
	m.titleInput.SetValue(title)
	m.descInput.SetValue(desc)
	m.titleInput.CursorEnd()
	m.descInput.CursorEnd()
	m.focusField(FieldTitle)
	return m
}

func (m Model) lookup(id int64) (model.Task, bool) {
	if m.ctrl != nil {
		return m.ctrl.Task(id)
	}
	return model.Find(m.Tasks, id)
}

func (m Model) closeForm() Model {
	m.Screen = ScreenList
	m.Form = FormState{}
	m.titleInput.Blur()
	m.descInput.Blur()
	m.titleInput.SetValue("")
	m.descInput.SetValue("")
	return m
}

func (m Model) handleFormKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Form.Saving {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		return m.closeForm(), nil
	case "tab", "down":
		m.focusField((m.Form.Focus + 1) % fieldCount)
		return m, nil
	case "shift+tab", "up":
		m.focusField((m.Form.Focus + fieldCount - 1) % fieldCount)
		return m, nil
	case "enter":
		return m.saveForm()
	}

	if m.Form.Focus == FieldDue {
		switch msg.String() {
		case "+", "=", "l", "right":
			m.Form.Due++
		case "-", "h", "left":
			m.Form.Due--
		case "t":
			m.Form.Due = m.today()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.Form.Focus == FieldTitle {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.descInput, cmd = m.descInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusField(f FormField) {
	m.Form.Focus = f
	m.titleInput.Blur()
	m.descInput.Blur()
	switch f {
	case FieldTitle:
		m.titleInput.Focus()
	case FieldDescription:
		m.descInput.Focus()
	}
}

// validateForm mirrors the checks of the add/edit screen. The core accepts any values.
func validateForm(title, description string, due, today int64) []string {
	var errs []string
	if strings.TrimSpace(title) == "" {
		errs = append(errs, msgTitleRequired)
	}
	if strings.TrimSpace(description) == "" {
		errs = append(errs, msgDescriptionRequired)
	}
	if due < today {
		errs = append(errs, msgFutureDate)
	}
	return errs
}

func (m Model) saveForm() (Model, tea.Cmd) {
	title := m.titleInput.Value()
	desc := m.descInput.Value()
	m.Form.Errors = validateForm(title, desc, m.Form.Due, m.today())
	if len(m.Form.Errors) > 0 || m.ctrl == nil {
		return m, nil
	}

	m.Form.Saving = true
	if m.Form.Route.Edit {
		task := m.Form.Original
		task.Title = title
		task.Description = desc
		task.DueDate = m.Form.Due
		return m, waitForOutcomeCmd(m.ctrl.Update(task), true)
	}
	task := model.Task{Title: title, Description: desc, DueDate: m.Form.Due}
	return m, waitForOutcomeCmd(m.ctrl.Insert(task), true)
}
