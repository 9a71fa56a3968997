package update

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"go.uber.org/zap"

	"github.com/sandeepkv93/todo/internal/controller"
	"github.com/sandeepkv93/todo/internal/model"
	"github.com/sandeepkv93/todo/internal/registry"
)

type Screen string

const (
	ScreenList Screen = "List"
	ScreenForm Screen = "Form"
)

// Route addresses the form screen. A zero TaskID opens an empty form.
type Route struct {
	TaskID int64
	Edit   bool
}

// TaskController is the part of controller.Controller the terminal needs.
type TaskController interface {
	Tasks() *registry.Subscription
	Task(id int64) (model.Task, bool)
	Insert(in model.Task) *controller.Pending
	Update(in model.Task) *controller.Pending
	Delete(in model.Task) *controller.Pending
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Add    string
	Edit   string
	Delete string
	Help   string
	Quit   string
}

type FormField int

const (
	FieldTitle FormField = iota
	FieldDescription
	FieldDue
	fieldCount
)

type FormState struct {
	Route    Route
	Original model.Task
	Due      int64
	Focus    FormField
	Errors   []string
	Saving   bool
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type Model struct {
	Screen         Screen
	Tasks          []model.Task
	Cursor         int
	SelectedTaskID int64
	Form           FormState
	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []Notification
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error
	LiveClosed     bool

	ctrl          TaskController
	sub           *registry.Subscription
	logger        *zap.Logger
	now           func() time.Time
	statusTimeout time.Duration
	width         int

	titleInput     textinput.Model
	descInput      textinput.Model
	commandInput   textinput.Model
	helpModel      help.Model
	detailViewport viewport.Model
	detail         detailKey
}

type Option func(*Model)

func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithStatusTimeout sets how long a save message stays up before the form closes.
func WithStatusTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.statusTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

type TasksMsg struct {
	Tasks []model.Task
}

type TasksClosedMsg struct{}

type OutcomeMsg struct {
	Outcome  controller.Outcome
	FromForm bool
}

type OpenFormMsg struct {
	Route Route
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

// ClearStatusMsg ends a transient status. NavigateBack also leaves the form.
type ClearStatusMsg struct {
	NavigateBack bool
}

type AppErrorMsg struct {
	Err error
}

const (
	msgTitleRequired       = "Please enter a title"
	msgDescriptionRequired = "Please enter a description"
	msgFutureDate          = "Please select a future date"
	msgSaved               = "Task saved successfully"
	msgUpdated             = "Task updated successfully"
	msgSaveFailed          = "Error: Something went wrong while saving task."
	msgDeleted             = "Task deleted"
	msgDeleteFailed        = "Error: Something went wrong while deleting task."
	msgGone                = "Task no longer exists"
)

func NewModel(ctrl TaskController, opts ...Option) Model {
	m := Model{
		Screen: ScreenList,
		Tasks:  []model.Task{},
		Keys: GlobalKeyMap{
			Add:    "a",
			Edit:   "e",
			Delete: "d",
			Help:   "?",
			Quit:   "q",
		},
		ctrl:          ctrl,
		logger:        zap.NewNop(),
		now:           time.Now,
		statusTimeout: 1500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if ctrl != nil {
		m.sub = ctrl.Tasks()
	}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m Model) today() int64 {
	return model.EpochDay(m.now())
}
