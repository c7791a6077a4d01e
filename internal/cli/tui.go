package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/structview/pkg/engine"
	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/pipeline"
	"github.com/matzehuels/structview/pkg/render"
	"github.com/matzehuels/structview/pkg/source"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// stepCommand creates the interactive frame stepper.
func (c *CLI) stepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "step [frames.json]",
		Short: "Step through a frame sequence in the terminal",
		Long: `Replay a frame sequence and browse the scene after each frame.

The table lists every item of the scene with its position and lifecycle
state. A frame that fails to build keeps the previous scene and shows the
error instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStep(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runStep(ctx context.Context, input string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	frames, err := pipeline.DecodeFile(ctx, input)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%s contains no frames", input)
	}

	steps, err := replaySteps(ctx, frames, engine.Options{Config: cfg.Engine(), Logger: c.Logger})
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(newStepModel(input, steps), tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// Replay
// =============================================================================

// stepResult is the scene after one frame. Err is set when the frame was
// rejected, in which case Scene is the last good scene (nil if none).
type stepResult struct {
	Scene *render.Scene
	Err   error
}

// replaySteps renders every frame on one engine and keeps each scene.
func replaySteps(ctx context.Context, frames []source.Frame, opts engine.Options) ([]stepResult, error) {
	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}
	steps := make([]stepResult, len(frames))
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scene, err := eng.Render(ctx, f)
		if err != nil {
			steps[i] = stepResult{Scene: eng.Scene(), Err: err}
			continue
		}
		steps[i] = stepResult{Scene: scene}
	}
	return steps, nil
}

// =============================================================================
// stepModel - Interactive frame stepper
// =============================================================================

// stepModel is the bubbletea model for browsing replayed frames.
type stepModel struct {
	title      string
	steps      []stepResult
	cursor     int // current step
	offset     int // first visible table row
	height     int // visible table rows
	onlyLeaked bool
}

func newStepModel(title string, steps []stepResult) stepModel {
	return stepModel{title: title, steps: steps, height: 15}
}

func (m stepModel) Init() tea.Cmd {
	return nil
}

func (m stepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "n", " ":
			m = m.goTo(m.cursor + 1)
		case "left", "h", "p":
			m = m.goTo(m.cursor - 1)
		case "home", "g":
			m = m.goTo(0)
		case "end", "G":
			m = m.goTo(len(m.steps) - 1)
		case "down", "j":
			if m.offset+m.height < len(m.rows()) {
				m.offset++
			}
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "L":
			m.onlyLeaked = !m.onlyLeaked
			m.offset = 0
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
	}
	return m, nil
}

func (m stepModel) goTo(i int) stepModel {
	i = min(max(i, 0), len(m.steps)-1)
	if i != m.cursor {
		m.cursor = i
		m.offset = 0
	}
	return m
}

// rows returns the table rows of the current scene.
func (m stepModel) rows() []render.Item {
	scene := m.steps[m.cursor].Scene
	if scene == nil {
		return nil
	}
	if !m.onlyLeaked {
		return scene.Items
	}
	var out []render.Item
	for _, it := range scene.Items {
		if it.Leaked {
			out = append(out, it)
		}
	}
	return out
}

func (m stepModel) View() string {
	var b strings.Builder
	step := m.steps[m.cursor]

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s  frame %d/%d", m.title, m.cursor+1, len(m.steps))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ frame  ↑/↓ scroll  L leaked only  q quit"))
	b.WriteString("\n\n")

	if step.Err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + errors.UserMessage(step.Err))
		b.WriteString("\n\n")
	}
	if step.Scene == nil {
		b.WriteString(StyleDim.Render("no scene yet"))
		return b.String()
	}

	b.WriteString(patchLine(step.Scene))
	b.WriteString("\n")

	items := m.rows()
	end := min(m.offset+m.height, len(items))
	rows := make([][]string, 0, end-m.offset)
	for _, it := range items[m.offset:end] {
		rows = append(rows, []string{
			it.ID,
			string(it.Kind),
			it.Group,
			fmt.Sprintf("%.1f", it.X),
			fmt.Sprintf("%.1f", it.Y),
			itemState(it),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Kind", "Group", "X", "Y", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.offset + row
			if idx >= len(items) {
				return lipgloss.NewStyle()
			}
			switch {
			case items[idx].Leaked:
				return StyleLeak
			case items[idx].Freed:
				return styleFreed
			}
			return StyleValue
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d-%d of %d items]", min(m.offset+1, end), end, len(items))))
	return b.String()
}

// patchLine summarizes what the frame changed.
func patchLine(s *render.Scene) string {
	p := s.Patch
	parts := []string{
		fmt.Sprintf("+%d added", len(p.Add)),
		fmt.Sprintf("-%d removed", len(p.Remove)),
	}
	line := StyleDim.Render(strings.Join(parts, "  "))
	if len(p.Leaked) > 0 {
		line += "  " + StyleLeak.Render(fmt.Sprintf("%d leaked", len(p.Leaked)))
	}
	if s.HasLeak {
		line += "  " + StyleDim.Render(fmt.Sprintf("leak area y=%.0f (%d accumulated)", s.LeakAreaY, len(p.AccumulateLeak)))
	}
	return line
}

func itemState(it render.Item) string {
	switch {
	case it.Leaked:
		return "leaked"
	case it.Freed:
		return "freed"
	case it.Kind == model.KindMarker:
		return "→ " + it.Owner
	}
	return ""
}
