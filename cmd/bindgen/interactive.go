package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/bindgen/bindgen"
	"github.com/wippyai/bindgen/descriptor"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#666666"))

	activeTabStyle = tabStyle.
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

type modelState int

const (
	stateSelectItem modelState = iota
	stateShowOutput
)

type artifact struct {
	name string
	body string
}

type interactiveModel struct {
	err       error
	d         *descriptor.Descriptor
	opts      bindgen.Options
	artifacts []artifact
	visible   []descriptor.Item
	filter    textinput.Model
	view      viewport.Model
	selected  int
	tab       int
	state     modelState
}

type generatedMsg struct {
	err       error
	artifacts []artifact
}

func newInteractiveModel(d *descriptor.Descriptor, opts bindgen.Options) *interactiveModel {
	filter := textinput.New()
	filter.Prompt = "filter: "
	filter.Placeholder = "item name"
	filter.Width = 40
	filter.Focus()

	m := &interactiveModel{
		d:      d,
		opts:   opts,
		filter: filter,
		view:   viewport.New(80, 20),
		state:  stateSelectItem,
	}
	m.applyFilter()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.generate)
}

func (m *interactiveModel) generate() tea.Msg {
	out, err := bindgen.Generate(m.d, m.opts)
	if err != nil {
		return generatedMsg{err: err}
	}
	arts := []artifact{
		{name: out.HeaderName, body: string(out.Header)},
		{name: out.GlueName, body: string(out.Glue)},
	}
	if len(out.Callbacks) > 0 {
		arts = append(arts, artifact{name: out.CallbacksName, body: string(out.Callbacks)})
	}
	return generatedMsg{artifacts: arts}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-6, 5)

	case generatedMsg:
		m.err = msg.err
		m.artifacts = msg.artifacts

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up":
			if m.state == stateSelectItem && m.selected > 0 {
				m.selected--
				return m, nil
			}

		case "down":
			if m.state == stateSelectItem && m.selected < len(m.visible)-1 {
				m.selected++
				return m, nil
			}

		case "enter":
			if m.state == stateSelectItem && len(m.artifacts) > 0 {
				m.state = stateShowOutput
				m.filter.Blur()
				m.showArtifact()
				return m, nil
			}

		case "tab":
			if m.state == stateShowOutput {
				m.tab = (m.tab + 1) % len(m.artifacts)
				m.showArtifact()
				return m, nil
			}

		case "esc":
			if m.state == stateShowOutput {
				m.state = stateSelectItem
				m.filter.Focus()
				return m, nil
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectItem:
		before := m.filter.Value()
		m.filter, cmd = m.filter.Update(msg)
		if m.filter.Value() != before {
			m.applyFilter()
		}
	case stateShowOutput:
		m.view, cmd = m.view.Update(msg)
	}
	return m, cmd
}

func (m *interactiveModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for _, it := range m.d.Items {
		if q == "" || strings.Contains(strings.ToLower(it.ItemName()), q) {
			m.visible = append(m.visible, it)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

// showArtifact loads the current artifact and scrolls to the first line
// mentioning the selected item.
func (m *interactiveModel) showArtifact() {
	art := m.artifacts[m.tab]
	m.view.SetContent(art.body)
	m.view.GotoTop()
	if len(m.visible) == 0 {
		return
	}
	needle := symbolFragment(m.visible[m.selected])
	for i, line := range strings.Split(art.body, "\n") {
		if strings.Contains(line, needle) {
			m.view.SetYOffset(i)
			return
		}
	}
}

// symbolFragment returns the snake_case form of an item name as it appears
// in generated C symbols.
func symbolFragment(it descriptor.Item) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(it.ItemName())
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("bindgen"))
	b.WriteString(" ")
	b.WriteString(m.d.Package)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectItem:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for i, it := range m.visible {
			line := fmt.Sprintf("%-10s %s", it.ItemKind(), describeItem(it))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + kindStyle.Render(fmt.Sprintf("%-10s", it.ItemKind())) + " " + nameStyle.Render(describeItem(it)))
			}
			b.WriteString("\n")
		}
		if len(m.artifacts) == 0 {
			b.WriteString("\nGenerating...\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter show output • esc quit"))

	case stateShowOutput:
		var tabs []string
		for i, a := range m.artifacts {
			if i == m.tab {
				tabs = append(tabs, activeTabStyle.Render(a.name))
			} else {
				tabs = append(tabs, tabStyle.Render(a.name))
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
		b.WriteString("\n")
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(fmt.Sprintf("%3.f%% • tab next file • ↑/↓ scroll • esc back", m.view.ScrollPercent()*100)))
	}

	return b.String()
}

func runInteractive(d *descriptor.Descriptor, opts bindgen.Options) error {
	p := tea.NewProgram(newInteractiveModel(d, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
