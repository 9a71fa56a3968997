package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/todo/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return "\n" + m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.screenBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Screen:   string(m.Screen),
		Bindings: plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) screenBindings() []KeyBinding {
	if m.Screen == ScreenForm {
		return []KeyBinding{
			{Key: "tab/shift+tab", Action: "next/previous field"},
			{Key: "+/-", Action: "move due date by a day"},
			{Key: "t", Action: "due today"},
			{Key: "enter", Action: "save"},
			{Key: "esc", Action: "cancel"},
		}
	}
	return []KeyBinding{
		{Key: "j/k", Action: "move selection"},
		{Key: m.Keys.Add, Action: "add task"},
		{Key: m.Keys.Edit + "/enter", Action: "edit selected task"},
		{Key: m.Keys.Delete, Action: "delete selected task"},
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) helpBindings() []key.Binding {
	kbs := m.screenBindings()
	out := make([]key.Binding, 0, len(kbs))
	for _, kb := range kbs {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
