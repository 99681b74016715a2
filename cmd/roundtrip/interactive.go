package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Nor2-io/wit-bindgen-yowl/boundary"
	"github.com/Nor2-io/wit-bindgen-yowl/canon"
	"github.com/Nor2-io/wit-bindgen-yowl/iface"
	"github.com/Nor2-io/wit-bindgen-yowl/suite"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type funcEntry struct {
	in *iface.Interface
	f  *iface.Function
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err       error
	session   *boundary.Session
	opts      []boundary.Option
	result    string
	title     string
	funcs     []funcEntry
	inputs    []textinput.Model
	selected  int
	focusIdx  int
	state     modelState
	direction boundary.Direction
}

func newInteractiveModel(opts []boundary.Option) *interactiveModel {
	return &interactiveModel{opts: opts, state: stateSelectFunc}
}

type loadedMsg struct {
	err     error
	session *boundary.Session
}

type callResultMsg struct {
	err    error
	title  string
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	s, err := boundary.New(context.Background(), m.opts...)
	return loadedMsg{session: s, err: err}
}

func (m *interactiveModel) close() {
	if m.session != nil {
		_ = m.session.Close(context.Background())
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.close()
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				m.close()
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "d":
			if m.state == stateSelectFunc {
				m.direction = 1 - m.direction
			}

		case "s":
			if m.state == stateSelectFunc && m.session != nil {
				return m, m.runSuite
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 {
					break
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		for _, in := range m.session.Interfaces() {
			for _, f := range in.Functions {
				m.funcs = append(m.funcs, funcEntry{in: in, f: f})
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.title = msg.title
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected].f
	m.inputs = make([]textinput.Model, len(f.Params))
	for i, p := range f.Params {
		ti := textinput.New()
		ti.Placeholder = p.Kind.String()
		ti.Prompt = p.Name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callFunction() tea.Msg {
	if m.session == nil {
		return callResultMsg{err: fmt.Errorf("session not ready")}
	}
	e := m.funcs[m.selected]
	title := e.f.Name

	args := make([]any, len(m.inputs))
	for i, input := range m.inputs {
		p := e.f.Params[i]
		v, err := canon.ParseValue(p.Kind, input.Value(), []string{e.in.QualifiedName(), e.f.Name, p.Name})
		if err != nil {
			return callResultMsg{err: err, title: title}
		}
		args[i] = v
	}

	res, err := m.session.CallIn(context.Background(), m.direction, e.in.QualifiedName(), e.f.Name, args...)
	if err != nil {
		return callResultMsg{err: err, title: title}
	}
	return callResultMsg{title: title, result: formatResults(e.f.Results, res)}
}

func (m *interactiveModel) runSuite() tea.Msg {
	report, err := suite.NewRunner(
		suite.WithEncodings(m.session.Encoding()),
		suite.WithDirections(m.direction),
		suite.WithSessionOptions(m.opts...),
	).Run(context.Background())
	title := "suite"
	if err != nil {
		return callResultMsg{err: err, title: title}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d checks passed in %s", report.Passed(), len(report.Results), report.Duration)
	for _, f := range report.Failures() {
		fmt.Fprintf(&b, "\n%s %s: %v", f.Property, f.Name, f.Err)
	}
	if !report.OK() {
		return callResultMsg{err: fmt.Errorf("%s", b.String()), title: title}
	}
	return callResultMsg{title: title, result: b.String()}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.session == nil {
		return "Pairing host and guest..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Roundtrip"))
	b.WriteString(" ")
	b.WriteString(typeStyle.Render(m.session.Encoding().String()))
	b.WriteString(" ")
	b.WriteString(m.direction.String())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to call:\n\n")
		for i, e := range m.funcs {
			line := e.in.QualifiedName() + " " + formatFunc(e.f)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • d direction • s run suite • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected].f
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.Name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(f.Params[i].Kind.String()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(m.title)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func formatFunc(f *iface.Function) string {
	var params []string
	for _, p := range f.Params {
		params = append(params, p.Name+": "+typeStyle.Render(p.Kind.String()))
	}
	var results []string
	for _, k := range f.Results {
		results = append(results, typeStyle.Render(k.String()))
	}
	out := funcStyle.Render(f.Name) + "(" + strings.Join(params, ", ") + ")"
	if len(results) > 0 {
		out += " -> " + strings.Join(results, ", ")
	}
	return out
}

func runInteractive(opts []boundary.Option) error {
	p := tea.NewProgram(newInteractiveModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
