package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ownablekit/studio/builder"
	"github.com/ownablekit/studio/compiler"
	"github.com/ownablekit/studio/orchestrator"
	"github.com/ownablekit/studio/project"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	stepDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	stepFailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	stepPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const logTail = 6

type buildModel struct {
	project *project.Project
	cfg     builder.Config
	out     string

	spinner  spinner.Model
	progress progress.Model

	steps   []builder.Step
	logs    []builder.LogEntry
	result  *orchestrator.Result
	written string
	err     error
	done    bool

	updates chan tea.Msg
}

type stepsMsg []builder.Step

type logsMsg []builder.LogEntry

type doneMsg struct {
	result  *orchestrator.Result
	written string
	err     error
}

func newBuildModel(p *project.Project, cfg builder.Config, out string) *buildModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &buildModel{
		project:  p,
		cfg:      cfg,
		out:      out,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		steps:    builder.NewSteps(),
		updates:  make(chan tea.Msg, 64),
	}
}

func (m *buildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startBuild, m.waitUpdate)
}

// startBuild runs the pipeline off the UI goroutine, streaming step and
// log snapshots back through the updates channel.
func (m *buildModel) startBuild() tea.Msg {
	orch := orchestrator.New(compiler.NewSimulated(), m.cfg)
	orch.OnSteps(func(steps []builder.Step) { m.updates <- stepsMsg(steps) })
	orch.OnLogs(func(logs []builder.LogEntry) { m.updates <- logsMsg(logs) })

	res, err := orch.Build(context.Background(), m.project)
	if err != nil {
		m.updates <- doneMsg{err: err}
		return nil
	}

	out := m.out
	if out == "" {
		out = res.Filename
	}
	if err := os.WriteFile(out, res.Archive, 0o644); err != nil {
		m.updates <- doneMsg{err: fmt.Errorf("write archive: %w", err)}
		return nil
	}
	m.updates <- doneMsg{result: res, written: out}
	return nil
}

func (m *buildModel) waitUpdate() tea.Msg {
	return <-m.updates
}

func (m *buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			if m.done {
				return m, tea.Quit
			}
		}

	case stepsMsg:
		m.steps = msg
		return m, m.waitUpdate

	case logsMsg:
		m.logs = msg
		return m, m.waitUpdate

	case doneMsg:
		m.done = true
		m.result = msg.result
		m.written = msg.written
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *buildModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Ownable Studio"))
	b.WriteString(fmt.Sprintf(" %s %s\n\n", m.cfg.PackageName, m.cfg.Version))

	for _, step := range m.steps {
		switch step.Status {
		case builder.StatusSuccess:
			b.WriteString(stepDoneStyle.Render("✓ " + step.Label))
			if step.Message != "" {
				b.WriteString(stepPendingStyle.Render("  " + step.Message))
			}
		case builder.StatusError:
			b.WriteString(stepFailStyle.Render("✗ " + step.Label))
		case builder.StatusRunning:
			b.WriteString(m.spinner.View() + step.Label)
			if step.Progress > 0 && step.Progress < 100 {
				b.WriteString("  ")
				b.WriteString(m.progress.ViewAs(float64(step.Progress) / 100))
			}
		default:
			b.WriteString(stepPendingStyle.Render("· " + step.Label))
		}
		b.WriteString("\n")
	}

	if len(m.logs) > 0 {
		b.WriteString("\n")
		tail := m.logs
		if len(tail) > logTail {
			tail = tail[len(tail)-logTail:]
		}
		for _, entry := range tail {
			line := fmt.Sprintf("%s %s", entry.Time.Format("15:04:05"), entry.Message)
			if entry.Level == builder.LevelError {
				b.WriteString(stepFailStyle.Render(line))
			} else {
				b.WriteString(logStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	if m.done {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Build failed: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(fmt.Sprintf("Package %s", m.written)))
			b.WriteString("\n")
			b.WriteString(resultStyle.Render(fmt.Sprintf("CID %s", m.result.CID)))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter exit • q quit"))
	} else {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("q cancel"))
	}

	return b.String()
}

func runInteractive(p *project.Project, cfg builder.Config, out string) error {
	model := newBuildModel(p, cfg, out)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return err
	}
	if model.err != nil {
		return model.err
	}
	return nil
}
