package update

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/todo/internal/controller"
	"github.com/sandeepkv93/todo/internal/model"
)

// waitForTasksCmd reads one delivery of the live view. Update re-arms it after
// every TasksMsg.
func waitForTasksCmd(ch <-chan []model.Task) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		tasks, ok := <-ch
		if !ok {
			return TasksClosedMsg{}
		}
		return TasksMsg{Tasks: tasks}
	}
}

func waitForOutcomeCmd(p *controller.Pending, fromForm bool) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		return OutcomeMsg{Outcome: p.Outcome(), FromForm: fromForm}
	}
}

func clearStatusAfter(d time.Duration, navigateBack bool) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{NavigateBack: navigateBack}
	})
}

func outcomeFields(o controller.Outcome) []zap.Field {
	return []zap.Field{
		zap.String("op", string(o.Op)),
		zap.Int64("task_id", o.TaskID),
		zap.String("kind", string(o.Kind())),
		zap.Error(o.Err),
	}
}
