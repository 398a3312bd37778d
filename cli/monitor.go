// ABOUTME: "cicd monitor" command: a bubbletea view polling a run or pipeline until it finishes.
// ABOUTME: The ID is resolved as a run first, then as a pipeline, matching what the agent knows.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	cicd "github.com/jkalend/custom-cicd/client"
	"github.com/jkalend/custom-cicd/engine"
)

func newMonitorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor <pipeline-id-or-run-id>",
		Short: "Watch a run or pipeline live until it reaches a terminal status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetInt("interval")
			model := newMonitorModel(app.client, args[0], time.Duration(interval)*time.Second)

			program := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			final, err := program.Run()
			if err != nil {
				return err
			}
			if m, ok := final.(monitorModel); ok && m.err != nil {
				return m.err
			}
			return nil
		},
	}
	cmd.Flags().Int("interval", 2, "refresh interval in seconds")
	return cmd
}

type monitorTarget int

const (
	targetUnknown monitorTarget = iota
	targetRun
	targetPipeline
)

type tickMsg time.Time

type runStatusMsg engine.Run

type pipelineStatusMsg engine.PipelineStatus

type monitorErrMsg struct{ err error }

// monitorModel polls one identifier and renders its latest state. It quits on
// its own once the watched run or pipeline reaches a terminal status.
type monitorModel struct {
	client   *cicd.Client
	id       string
	interval time.Duration

	target   monitorTarget
	run      engine.Run
	pipeline engine.PipelineStatus
	started  time.Time
	err      error
	finished bool
}

func newMonitorModel(c *cicd.Client, id string, interval time.Duration) monitorModel {
	return monitorModel{
		client:   c,
		id:       id,
		interval: interval,
		started:  time.Now(),
	}
}

func (m monitorModel) Init() tea.Cmd {
	return m.fetch()
}

// fetch resolves the identifier as a run first and falls back to a pipeline.
// Once resolved, subsequent polls go straight to the known target.
func (m monitorModel) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if m.target != targetPipeline {
			run, err := m.client.GetRun(ctx, m.id)
			if err == nil {
				return runStatusMsg(run)
			}
			if m.target == targetRun || !isNotFound(err) {
				return monitorErrMsg{err}
			}
		}

		pipeline, err := m.client.GetPipeline(ctx, m.id)
		if err != nil {
			if isNotFound(err) && m.target == targetUnknown {
				err = fmt.Errorf("%s is neither a run nor a pipeline", m.id)
			}
			return monitorErrMsg{err}
		}
		return pipelineStatusMsg(pipeline)
	}
}

func (m monitorModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case runStatusMsg:
		m.target = targetRun
		m.run = engine.Run(msg)
		if m.run.Status.Terminal() {
			m.finished = true
			return m, tea.Quit
		}
		return m, m.tick()

	case pipelineStatusMsg:
		m.target = targetPipeline
		m.pipeline = engine.PipelineStatus(msg)
		if m.pipeline.Status.Terminal() {
			m.finished = true
			return m, tea.Quit
		}
		return m, m.tick()

	case monitorErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case tickMsg:
		return m, m.fetch()
	}
	return m, nil
}

func (m monitorModel) View() string {
	if m.err != nil {
		return errorStyle.Render("monitor: "+m.err.Error()) + "\n"
	}

	var body string
	switch m.target {
	case targetRun:
		body = renderRunDetails(m.run)
	case targetPipeline:
		body = renderPipelineDetails(m.pipeline)
	default:
		return dimStyle.Render("waiting for "+m.id+" ...") + "\n"
	}

	footer := dimStyle.Render(fmt.Sprintf("watching %s for %s (q to quit)",
		m.id, time.Since(m.started).Truncate(time.Second)))
	if m.finished {
		footer = successStyle.Render("finished")
	}
	return body + "\n" + footer + "\n"
}

func isNotFound(err error) bool {
	var apiErr *cicd.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
