// Package editor implements an interactive terminal editor for collage
// compositions, built on the bubbletea event loop.
package editor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/esimov/collage"
)

// frameInterval is the delay between two animation frames. Pointer moves are
// coalesced and applied at most once per frame.
const frameInterval = 16 * time.Millisecond

// statusLines is the number of terminal rows reserved for the status bar.
const statusLines = 2

type promptMode int

const (
	promptNone promptMode = iota
	promptText
	promptImage
)

type (
	frameMsg time.Time

	exportDoneMsg struct {
		res  *collage.Result
		path string
		err  error
	}

	imageAddedMsg struct {
		src string
		err error
	}
)

// Model is the bubbletea model of the editor.
type Model struct {
	ctx      context.Context
	ctrl     *collage.Controller
	renderer *collage.Renderer
	exporter *collage.Exporter
	output   string

	presets     []collage.Preset
	presetIdx   int
	highQuality bool

	width, height int
	session       *collage.Session

	prompt promptMode
	input  textinput.Model

	exporting bool
	notice    string
	failed    bool
}

// New creates an editor over the controller's composition. Exports are
// written to output, or to the configured output when empty.
func New(ctx context.Context, cfg collage.Config, ctrl *collage.Controller, output string) (*Model, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	if output == "" {
		output = cfg.Output
	}
	renderer := cfg.Renderer()

	m := &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		renderer: renderer,
		exporter: collage.NewExporter(renderer, opts),
		output:   output,
		width:    80,
		height:   24,
		input:    newInput(),

		presets:     collage.Presets(),
		highQuality: opts.HighQuality,
	}
	for i, p := range m.presets {
		if p == opts.Preset {
			m.presetIdx = i
		}
	}
	return m, nil
}

// Run loads the scene onto a new composition and starts the editor. It
// returns when the user quits or the context is cancelled.
func Run(ctx context.Context, cfg collage.Config, output string) error {
	ctrl := collage.NewController()
	if err := cfg.Apply(ctrl); err != nil {
		return err
	}
	m, err := New(ctx, cfg, ctrl, output)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func newInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 2048
	ti.Width = 60
	ti.PromptStyle = promptStyle
	return ti
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return frame()
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case frameMsg:
		if m.session != nil {
			if _, err := m.session.Tick(); err != nil {
				m.setError(err)
			}
		}
		return m, frame()

	case exportDoneMsg:
		m.exporting = false
		if msg.err != nil {
			m.setError(fmt.Errorf("%w (press e to retry)", msg.err))
			return m, nil
		}
		m.setNotice(fmt.Sprintf("Exported %s at %dx%d", msg.path, msg.res.Image.Bounds().Dx(), msg.res.Image.Bounds().Dy()))
		return m, nil

	case imageAddedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setNotice("Added " + msg.src)
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m, m.handlePrompt(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "t":
		return m.openPrompt(promptText, "Text: ")
	case "o":
		return m.openPrompt(promptImage, "Image path or URL: ")
	case "]":
		if err := m.ctrl.Raise(); err != nil {
			m.setError(err)
		}
	case "[":
		if err := m.ctrl.Lower(); err != nil {
			m.setError(err)
		}
	case "esc":
		m.ctrl.ClearSelection()
	case "r":
		m.presetIdx = (m.presetIdx + 1) % len(m.presets)
		m.setNotice("Resolution " + m.preset().Name)
	case "h":
		m.highQuality = !m.highQuality
		if m.highQuality {
			m.setNotice("High quality resampling on")
		} else {
			m.setNotice("High quality resampling off")
		}
	case "e":
		return m.export()
	}
	return nil
}

func (m *Model) openPrompt(mode promptMode, prompt string) tea.Cmd {
	m.prompt = mode
	m.input.Prompt = prompt
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) handlePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		if m.prompt == promptText {
			m.ctrl.SetInput("")
		}
		m.closePrompt()
		return nil

	case tea.KeyEnter:
		mode, value := m.prompt, m.input.Value()
		m.closePrompt()
		switch mode {
		case promptText:
			m.ctrl.SetInput(value)
			if !m.ctrl.AddText() {
				m.setError(errors.New("the text is empty"))
			}
		case promptImage:
			if value == "" {
				return nil
			}
			ctrl := m.ctrl
			return func() tea.Msg {
				return imageAddedMsg{src: value, err: ctrl.AddImageSource(value)}
			}
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.prompt == promptText {
		m.ctrl.SetInput(m.input.Value())
	}
	return cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	p := m.toPixel(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || msg.Y >= m.canvasRows() {
			return nil
		}
		m.endSession()

		hit, ok, err := m.renderer.HitTest(m.ctrl.Snapshot(), p)
		if err != nil {
			m.setError(err)
			return nil
		}
		if !ok {
			m.ctrl.ClearSelection()
			return nil
		}
		if err := m.ctrl.Select(hit.Kind, hit.Index); err != nil {
			m.setError(err)
			return nil
		}
		if hit.Kind == collage.KindImage && (hit.OnHandle || m.onHandleCell(hit.Placement, msg.X, msg.Y)) {
			m.session, err = m.ctrl.BeginResize(hit.Index, p)
		} else {
			m.session, err = m.ctrl.BeginDrag(hit.Kind, hit.Index, p)
		}
		if err != nil {
			m.setError(err)
		}

	case tea.MouseActionMotion:
		if m.session != nil {
			if err := m.session.Move(p); err != nil {
				m.setError(err)
			}
		}

	case tea.MouseActionRelease:
		m.endSession()
	}
	return nil
}

func (m *Model) endSession() {
	if m.session != nil {
		m.session.End()
		m.session = nil
	}
}

// export starts an asynchronous export of the current composition.
func (m *Model) export() tea.Cmd {
	if m.exporting {
		m.setError(collage.ErrExportInProgress)
		return nil
	}
	m.exporting = true
	m.exporter.Options.Preset = m.preset()
	m.exporter.Options.HighQuality = m.highQuality
	m.setNotice(fmt.Sprintf("Exporting at %s...", m.preset().Name))

	ctx, exp, snap, path := m.ctx, m.exporter, m.ctrl.Snapshot(), m.output
	return func() tea.Msg {
		res, err := exp.ExportFile(ctx, snap, path)
		return exportDoneMsg{res: res, path: path, err: err}
	}
}

func (m *Model) preset() collage.Preset {
	return m.presets[m.presetIdx]
}

func (m *Model) setNotice(s string) {
	m.notice, m.failed = s, false
}

func (m *Model) setError(err error) {
	m.notice, m.failed = err.Error(), true
}

func (m *Model) canvasRows() int {
	return max(1, m.height-statusLines)
}

// cellSize returns the size of a terminal cell in viewport pixels.
func (m *Model) cellSize() (float64, float64) {
	return float64(m.renderer.Width) / float64(max(1, m.width)),
		float64(m.renderer.Height) / float64(m.canvasRows())
}

// toPixel maps a terminal cell to the viewport pixel at its center.
func (m *Model) toPixel(x, y int) collage.Point {
	sx, sy := m.cellSize()
	return collage.Point{X: (float64(x) + 0.5) * sx, Y: (float64(y) + 0.5) * sy}
}

// toCells maps a viewport rectangle to the inclusive range of cells it covers.
func (m *Model) toCells(r collage.Rect) (x0, y0, x1, y1 int) {
	sx, sy := m.cellSize()
	x0 = int(math.Floor(r.Min.X / sx))
	y0 = int(math.Floor(r.Min.Y / sy))
	x1 = max(x0, int(math.Ceil(r.Max.X/sx))-1)
	y1 = max(y0, int(math.Ceil(r.Max.Y/sy))-1)
	return
}

// onHandleCell reports whether the cell is the bottom right cell of the placement,
// where the resize handle is drawn.
func (m *Model) onHandleCell(pl collage.Placement, x, y int) bool {
	_, _, x1, y1 := m.toCells(pl.Rect)
	return x == x1 && y == y1
}
