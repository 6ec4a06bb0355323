// Package ui provides the Bubbletea progress display shown while the
// external toolchain runs.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StageStatus represents the state of a single toolchain stage
type StageStatus int

const (
	StatusPending StageStatus = iota
	StatusRunning
	StatusDone
	StatusFailed
)

// Stage tracks one external tool invocation
type Stage struct {
	Name   string
	Status StageStatus
}

// Model is the Bubbletea model for the check progress UI
type Model struct {
	Source string
	Stages []Stage
	Err    error
	Done   bool

	// Channel for receiving progress updates from the pipeline
	MsgChan chan tea.Msg

	frame int
}

// NewModel creates a progress model for the given source file and stages
func NewModel(source string, stageNames []string) Model {
	stages := make([]Stage, len(stageNames))
	for i, name := range stageNames {
		stages[i] = Stage{Name: name, Status: StatusPending}
	}
	return Model{
		Source:  source,
		Stages:  stages,
		MsgChan: make(chan tea.Msg, 8),
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForMsg(m.MsgChan), tick())
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tick()

	case StageStartMsg:
		if msg.Index >= 0 && msg.Index < len(m.Stages) {
			m.Stages[msg.Index].Status = StatusRunning
		}
		return m, waitForMsg(m.MsgChan)

	case StageDoneMsg:
		if msg.Index >= 0 && msg.Index < len(m.Stages) {
			m.Stages[msg.Index].Status = StatusDone
		}
		return m, waitForMsg(m.MsgChan)

	case RunDoneMsg:
		m.Err = msg.Err
		m.Done = true
		for i := range m.Stages {
			if m.Stages[i].Status == StatusRunning {
				if m.Err != nil {
					m.Stages[i].Status = StatusFailed
				} else {
					m.Stages[i].Status = StatusDone
				}
			}
		}
		return m, tea.Quit
	}

	return m, nil
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// View renders the stage list
func (m Model) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#1E5AA8")).
		Render("Mastercheck 🎚 - Pre-mastering Quality Check")
	b.WriteString(title + "\n")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render("Checking " + m.Source)
	b.WriteString(subtitle + "\n\n")

	for _, stage := range m.Stages {
		b.WriteString(renderStage(stage, m.frame))
		b.WriteString("\n")
	}

	return b.String()
}

// renderStage renders a single stage entry
func renderStage(stage Stage, frame int) string {
	switch stage.Status {
	case StatusDone:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		return fmt.Sprintf(" %s %s", icon, stage.Name)
	case StatusRunning:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render(spinnerFrames[frame%len(spinnerFrames)])
		return fmt.Sprintf(" %s %s...", icon, stage.Name)
	case StatusFailed:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		return fmt.Sprintf(" %s %s", icon, stage.Name)
	default:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
		return fmt.Sprintf(" %s %s", icon, stage.Name)
	}
}

// waitForMsg creates a command that waits for pipeline messages
func waitForMsg(msgChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-msgChan
	}
}
