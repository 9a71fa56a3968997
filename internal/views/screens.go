package views

import (
	"fmt"
	"strings"
)

type TaskRowData struct {
	ID          int64
	Title       string
	Description string
	Due         string
	Overdue     bool
}

type TaskListPanelData struct {
	Rows       []TaskRowData
	SelectedID int64
	ListView   string
}

type TaskDetailData struct {
	ID          int64
	Title       string
	Due         string
	Description string
}

type TaskFormData struct {
	Editing     bool
	TaskID      int64
	TitleView   string
	DescView    string
	Due         string
	FocusIndex  int
	Errors      []string
	SaveBlocked bool
}

type HelpPanelData struct {
	Screen   string
	Bindings []string
	HelpView string
}

const (
	ListTitle  = "My Tasks"
	EmptyState = "No tasks yet!"
)

func RenderTaskListPanel(data TaskListPanelData) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(ListTitle) + "\n")
	if len(data.Rows) == 0 {
		b.WriteString("\n" + mutedStyle.Render(EmptyState) + "\n")
		b.WriteString(mutedStyle.Render("press [a] to add a task"))
		return strings.TrimSpace(b.String())
	}
	if data.ListView != "" {
		b.WriteString(data.ListView)
		return strings.TrimSpace(b.String())
	}
	for _, row := range data.Rows {
		cursor := " "
		if row.ID == data.SelectedID {
			cursor = cursorStyle.Render(">")
		}
		b.WriteString(fmt.Sprintf("%s %s\n", cursor, row.Title))
		if row.Description != "" {
			b.WriteString(fmt.Sprintf("  %s\n", row.Description))
		}
		due := "due: " + row.Due
		if row.Overdue {
			due += " (overdue)"
		}
		b.WriteString("  " + mutedStyle.Render(due) + "\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderTaskDetail(data TaskDetailData, markdownView string) string {
	if data.ID == 0 {
		return "details:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("details:\n")
	b.WriteString(fmt.Sprintf("id: %d\n", data.ID))
	b.WriteString(fmt.Sprintf("title: %s\n", data.Title))
	b.WriteString(fmt.Sprintf("due: %s\n", data.Due))
	b.WriteString("actions: [e]dit [d]elete\n\n")
	b.WriteString(markdownView)
	return strings.TrimSpace(b.String())
}

func RenderTaskForm(data TaskFormData) string {
	var b strings.Builder
	if data.Editing {
		b.WriteString(titleStyle.Render(fmt.Sprintf("Edit Task #%d", data.TaskID)) + "\n")
	} else {
		b.WriteString(titleStyle.Render("Add Task") + "\n")
	}
	fields := []struct {
		label string
		view  string
	}{
		{"Title", data.TitleView},
		{"Description", data.DescView},
		{"Due Date", data.Due + mutedStyle.Render("  [+/-] change")},
	}
	for i, f := range fields {
		cursor := " "
		if i == data.FocusIndex {
			cursor = cursorStyle.Render(">")
		}
		b.WriteString(fmt.Sprintf("\n%s %s\n  %s\n", cursor, f.label, f.view))
	}
	for _, e := range data.Errors {
		b.WriteString("\n" + errorStyle.Render(e))
	}
	b.WriteString("\n\n")
	if data.SaveBlocked {
		b.WriteString(mutedStyle.Render("saving..."))
	} else {
		b.WriteString(mutedStyle.Render("[enter] Save  [esc] Cancel"))
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s screen:\n%s\n%s",
		strings.ToLower(data.Screen),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
