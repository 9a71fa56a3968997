package update

import (
	"strings"
	"time"

	"github.com/sandeepkv93/todo/internal/model"
	"github.com/sandeepkv93/todo/internal/views"
)

func (m Model) renderListView() string {
	today := m.today()
	rows := make([]views.TaskRowData, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		rows = append(rows, views.TaskRowData{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Due:         model.FormatDue(t.DueDate),
			Overdue:     t.DueDate < today,
		})
	}
	return views.RenderTaskListPanel(views.TaskListPanelData{
		Rows:       rows,
		SelectedID: m.SelectedTaskID,
	})
}

func (m Model) renderDetailPane() string {
	task, ok := m.selectedTask()
	if !ok {
		return views.RenderTaskDetail(views.TaskDetailData{}, "")
	}
	return views.RenderTaskDetail(views.TaskDetailData{
		ID:          task.ID,
		Title:       task.Title,
		Due:         model.FormatDue(task.DueDate),
		Description: task.Description,
	}, m.detailViewport.View())
}

func (m Model) renderFormView() string {
	return views.RenderTaskForm(views.TaskFormData{
		Editing:     m.Form.Route.Edit,
		TaskID:      m.Form.Route.TaskID,
		TitleView:   m.titleInput.View(),
		DescView:    m.descInput.View(),
		Due:         model.FormatDueInput(m.Form.Due),
		FocusIndex:  int(m.Form.Focus),
		Errors:      m.Form.Errors,
		SaveBlocked: m.Form.Saving,
	})
}

func (m Model) renderCommandPalette() string {
	out := views.RenderCommandPalette(m.Palette.Active, m.commandInput.Value())
	if out == "" {
		return ""
	}
	return "\n" + out
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	m.Notifications = append(m.Notifications, Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    time.Now().UTC(),
	})
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
}
