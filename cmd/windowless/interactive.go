package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
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

type modelState int

const (
	stateSelectStep modelState = iota
	stateCommand
	stateShowResult
)

type interactiveModel struct {
	err      error
	player   *Player
	title    string
	last     string
	trace    []Entry
	steps    []Step
	played   []bool
	input    textinput.Model
	selected int
	state    modelState
}

type playedMsg struct {
	err   error
	step  Step
	trace []Entry
	index int
}

func newInteractiveModel(p *Player, sc *Scenario, title string) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "click 10 10"
	ti.Width = 60
	return &interactiveModel{
		player: p,
		title:  title,
		steps:  sc.Steps,
		played: make([]bool, len(sc.Steps)),
		input:  ti,
		state:  stateSelectStep,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	if len(m.steps) == 0 {
		m.state = stateCommand
		return m.input.Focus()
	}
	return nil
}

// play runs st as a command. index is -1 for typed commands.
func (m *interactiveModel) play(st Step, index int) tea.Cmd {
	return func() tea.Msg {
		err := m.player.Play(st)
		return playedMsg{err: err, step: st, trace: m.player.Drain(), index: index}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateCommand {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectStep && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectStep && m.selected < len(m.steps)-1 {
				m.selected++
			}

		case ":", "tab":
			if m.state == stateSelectStep {
				m.state = stateCommand
				m.input.SetValue("")
				return m, m.input.Focus()
			}

		case "enter":
			switch m.state {
			case stateSelectStep:
				if len(m.steps) > 0 {
					return m, m.play(m.steps[m.selected], m.selected)
				}
			case stateCommand:
				st, err := ParseCommand(m.input.Value())
				if err != nil {
					m.err = err
					m.last = m.input.Value()
					m.trace = nil
					m.state = stateShowResult
					return m, nil
				}
				m.input.Blur()
				return m, m.play(st, -1)
			case stateShowResult:
				m.back()
			}

		case "esc":
			switch m.state {
			case stateCommand:
				m.input.Blur()
				m.back()
			case stateShowResult:
				m.back()
			}
		}

	case playedMsg:
		m.err = msg.err
		m.trace = msg.trace
		m.last = msg.step.String()
		if msg.index >= 0 {
			m.played[msg.index] = true
			if msg.err == nil && m.selected < len(m.steps)-1 {
				m.selected++
			}
		}
		m.state = stateShowResult
	}

	if m.state == stateCommand {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) back() {
	m.err = nil
	m.trace = nil
	if len(m.steps) == 0 {
		m.state = stateCommand
		m.input.SetValue("")
		m.input.Focus()
		return
	}
	m.state = stateSelectStep
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("windowless"))
	b.WriteString(" ")
	b.WriteString(m.title)
	b.WriteString(" ")
	b.WriteString(kindStyle.Render(m.player.Session().State().String()))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectStep:
		b.WriteString("Select a step to play:\n\n")
		for i, st := range m.steps {
			mark := " "
			if m.played[i] {
				mark = "✓"
			}
			line := fmt.Sprintf("%s %2d %s", mark, i, st)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + stepStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter play • : command • q quit"))

	case stateCommand:
		b.WriteString("Command:\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("size W H • click X Y • mouse EV BTN X Y • key EV CODE • call F ARGS • complete URI • render"))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter play • esc back • ctrl+c quit"))

	case stateShowResult:
		b.WriteString(fmt.Sprintf("Played %s:\n\n", stepStyle.Render(m.last)))
		for _, e := range m.trace {
			b.WriteString(kindStyle.Render(fmt.Sprintf("%-10s", e.Kind)))
			b.WriteString(" ")
			b.WriteString(resultStyle.Render(e.Detail))
			b.WriteString("\n")
		}
		if len(m.trace) == 0 && m.err == nil {
			b.WriteString(helpStyle.Render("no callbacks"))
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(p *Player, sc *Scenario, title string) error {
	prog := tea.NewProgram(newInteractiveModel(p, sc, title), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
