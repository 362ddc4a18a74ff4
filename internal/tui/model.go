// Package tui is a terminal counter built on a store. Each panel is a view
// subscribed to its own slice of state, and the footer shows how often each
// panel re-rendered.
package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vango-dev/storekit/pkg/selector"
	"github.com/vango-dev/storekit/pkg/state"
	"github.com/vango-dev/storekit/pkg/store"
	"github.com/vango-dev/storekit/pkg/view"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(24)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

var steps = []int{1, 2, 5, 10}

// InitialState is the counter's starting state.
func InitialState() state.State {
	return state.State{"count": 0, "step": 1, "presses": 0}
}

// Selectors are the counter's derived values.
func Selectors() map[string]selector.Selector {
	return map[string]selector.Selector{
		"double": func(s state.State) any { return s["count"].(int) * 2 },
		"parity": func(s state.State) any {
			if s["count"].(int)%2 == 0 {
				return "even"
			}
			return "odd"
		},
	}
}

// panel is one mounted view and its last rendered text.
type panel struct {
	title string
	inst  *view.Instance
	body  string
}

// Model is the bubbletea model.
type Model struct {
	store  *store.Store
	queue  *view.Queue
	panels []*panel
}

// New builds the counter over st, which must hold InitialState's keys and
// Selectors. Panels are mounted immediately.
func New(st *store.Store) Model {
	m := Model{store: st, queue: view.NewQueue()}

	m.addPanel("Count", func(v *view.Instance) (string, error) {
		if err := st.UseState(v, "count"); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", st.GetState()["count"]), nil
	})
	m.addPanel("Derived", func(v *view.Instance) (string, error) {
		if err := st.UseSelectors(v, "double", "parity"); err != nil {
			return "", err
		}
		sel := st.GetSelectors()
		return fmt.Sprintf("double %v\n%v", sel["double"], sel["parity"]), nil
	})
	m.addPanel("Step", func(v *view.Instance) (string, error) {
		if err := st.UseState(v, "step"); err != nil {
			return "", err
		}
		return fmt.Sprintf("+/- %d", st.GetState()["step"]), nil
	})
	return m
}

func (m *Model) addPanel(title string, render func(v *view.Instance) (string, error)) {
	p := &panel{title: title}
	p.inst = view.New(strings.ToLower(title), func(v *view.Instance) {
		body, err := render(v)
		if err != nil {
			slog.Default().Warn("tui: render failed", "panel", title, "error", err)
			body = errorStyle.Render(err.Error())
		}
		p.body = body
	}, view.WithScheduler(m.queue))
	p.inst.Mount()
	m.panels = append(m.panels, p)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.Close()
		return m, tea.Quit
	case "+", "=", "up", "k":
		m.add(1)
	case "-", "down", "j":
		m.add(-1)
	case "s":
		m.nextStep()
	case "r":
		m.store.PatchState(state.State{"count": 0, "presses": 0})
	}

	m.queue.Flush()
	return m, nil
}

func (m Model) add(sign int) {
	s := m.store.GetState()
	m.store.PatchState(state.State{
		"count":   s["count"].(int) + sign*s["step"].(int),
		"presses": s["presses"].(int) + 1,
	})
}

func (m Model) nextStep() {
	cur := m.store.GetState()["step"].(int)
	next := steps[0]
	for i, s := range steps {
		if s == cur && i+1 < len(steps) {
			next = steps[i+1]
		}
	}
	m.store.Set("step", next)
}

// View implements tea.Model.
func (m Model) View() string {
	boxes := make([]string, 0, len(m.panels))
	counts := make([]string, 0, len(m.panels))
	for _, p := range m.panels {
		boxes = append(boxes, panelStyle.Render(titleStyle.Render(p.title)+"\n"+p.body))
		counts = append(counts, fmt.Sprintf("%s:%d", p.inst.ID(), p.inst.Renders()))
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("presses %v  renders %s", m.store.GetState()["presses"], strings.Join(counts, " "))))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("+/- change  s step  r reset  q quit"))
	b.WriteString("\n")
	return b.String()
}

// Renders returns each panel's render count by view id.
func (m Model) Renders() map[string]uint64 {
	out := make(map[string]uint64, len(m.panels))
	for _, p := range m.panels {
		out[p.inst.ID()] = p.inst.Renders()
	}
	return out
}

// Close unmounts every panel.
func (m Model) Close() {
	for _, p := range m.panels {
		p.inst.Unmount()
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(st *store.Store, opts ...tea.ProgramOption) error {
	m := New(st)
	defer m.Close()

	_, err := tea.NewProgram(m, opts...).Run()
	return err
}
