package update

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/todo/internal/views"
)

const (
	paneWidth      = 54
	viewportHeight = 10
)

// detailKey identifies what the detail viewport currently shows.
type detailKey struct {
	id          int64
	description string
	width       int
}

var renderMarkdown = views.RenderMarkdown

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func (m *Model) initBubbleComponents() {
	m.titleInput = textinput.New()
	m.titleInput.Placeholder = "Title"
	m.titleInput.CharLimit = 256
	m.titleInput.Width = 48

	m.descInput = textinput.New()
	m.descInput.Placeholder = "Description (markdown)"
	m.descInput.CharLimit = 1024
	m.descInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.helpModel = help.New()
	m.detailViewport = viewport.New(paneWidth, viewportHeight)
}

// syncBubbleData refreshes the detail preview for the selected task.
func (m *Model) syncBubbleData() {
	width := paneWidth
	if m.width > 0 && m.width/2-4 < width {
		width = max(m.width/2-4, 20)
	}
	m.detailViewport.Width = width

	task, ok := m.selectedTask()
	if !ok {
		m.detail = detailKey{}
		m.detailViewport.SetContent("")
		return
	}
	key := detailKey{id: task.ID, description: task.Description, width: width}
	if key == m.detail {
		return
	}
	md := task.Description
	if md == "" {
		md = "_No description_"
	}
	m.detail = key
	m.detailViewport.SetContent(renderMarkdown(md, width))
}
