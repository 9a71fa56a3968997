package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/todo/internal/model"
	"github.com/sandeepkv93/todo/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.sub != nil {
		return waitForTasksCmd(m.sub.C())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		return m, nil
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			return m.quit()
		}
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		if m.Screen == ScreenForm {
			return m.handleFormKey(typed)
		}
		return m.handleListKey(typed)
	case TasksMsg:
		m.setTasks(typed.Tasks)
		if m.sub != nil {
			return m, waitForTasksCmd(m.sub.C())
		}
		return m, nil
	case TasksClosedMsg:
		m.LiveClosed = true
		if !m.Quitting {
			m.Status = StatusBar{Text: "live task list closed", IsError: true}
			m.logger.Warn("live task list closed")
		}
		return m, nil
	case OutcomeMsg:
		return m.handleOutcome(typed)
	case OpenFormMsg:
		return m.openForm(typed.Route), nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		if typed.NavigateBack && m.Screen == ScreenForm {
			m = m.closeForm()
		}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
			m.logger.Error("presentation action failed", zap.Error(typed.Err))
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	var left, right string
	switch m.Screen {
	case ScreenForm:
		left = m.renderFormView()
		right = m.renderCommandPalette() + m.renderHelpIfVisible()
	default:
		left = m.renderListView()
		right = m.renderDetailPane() + m.renderCommandPalette() + m.renderHelpIfVisible()
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("todo | screen: %s | tasks: %d", m.Screen, len(m.Tasks)),
		LeftPane:     left,
		RightPane:    right,
		StatusLine:   m.Status.Text,
		StatusError:  m.Status.IsError,
		Notification: m.renderNotificationsView(),
		Footer:       m.footer(),
	})
}

func (m Model) footer() string {
	if m.Screen == ScreenForm {
		return "keys: tab field | +/- due date | enter save | esc cancel"
	}
	return fmt.Sprintf("keys: j/k move | %s add | %s edit | %s delete | / cmd | %s help | %s quit",
		m.Keys.Add, m.Keys.Edit, m.Keys.Delete, m.Keys.Help, m.Keys.Quit)
}

func (m Model) quit() (Model, tea.Cmd) {
	m.Quitting = true
	if m.sub != nil {
		m.sub.Close()
	}
	return m, tea.Quit
}

// setTasks replaces the list, keeping the selection on the same task when it survives.
func (m *Model) setTasks(tasks []model.Task) {
	m.Tasks = model.SortByDueDate(tasks)
	if len(m.Tasks) == 0 {
		m.Cursor = 0
		m.SelectedTaskID = 0
		return
	}
	for i, t := range m.Tasks {
		if t.ID == m.SelectedTaskID {
			m.Cursor = i
			return
		}
	}
	if m.Cursor >= len(m.Tasks) {
		m.Cursor = len(m.Tasks) - 1
	}
	m.SelectedTaskID = m.Tasks[m.Cursor].ID
}
