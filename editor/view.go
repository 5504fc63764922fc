package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/esimov/collage"
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("7"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedText = lipgloss.NewStyle().Bold(true)
)

const helpText = "t text · o image · [ ] order · r resolution · h quality · e export · q quit"

type frameRunes struct {
	tl, tr, bl, br, h, v rune
}

var (
	thinFrame   = frameRunes{'┌', '┐', '└', '┘', '─', '│'}
	doubleFrame = frameRunes{'╔', '╗', '╚', '╝', '═', '║'}
)

// grid is a fixed size buffer of terminal cells.
type grid struct {
	w, h  int
	cells [][]rune
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([][]rune, h)}
	for y := range g.cells {
		g.cells[y] = []rune(strings.Repeat(" ", w))
	}
	return g
}

func (g *grid) set(x, y int, r rune) {
	if x >= 0 && x < g.w && y >= 0 && y < g.h {
		g.cells[y][x] = r
	}
}

func (g *grid) text(x, y, maxX int, s string) {
	for _, r := range s {
		if x > maxX {
			return
		}
		g.set(x, y, r)
		x++
	}
}

func (g *grid) box(x0, y0, x1, y1 int, fill rune, f frameRunes) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			switch {
			case x == x0 && y == y0:
				g.set(x, y, f.tl)
			case x == x1 && y == y0:
				g.set(x, y, f.tr)
			case x == x0 && y == y1:
				g.set(x, y, f.bl)
			case x == x1 && y == y1:
				g.set(x, y, f.br)
			case y == y0 || y == y1:
				g.set(x, y, f.h)
			case x == x0 || x == x1:
				g.set(x, y, f.v)
			default:
				g.set(x, y, fill)
			}
		}
	}
}

func (g *grid) String() string {
	lines := make([]string, g.h)
	for y, row := range g.cells {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.ctrl.Snapshot()
	g := newGrid(max(1, m.width), m.canvasRows())

	placements, err := m.renderer.Layout(snap)
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	for _, pl := range placements {
		x0, y0, x1, y1 := m.toCells(pl.Rect)
		f := thinFrame
		if sel := snap.Selection; sel != nil && sel.Kind == pl.Kind && sel.Index == pl.Index {
			f = doubleFrame
		}

		switch pl.Kind {
		case collage.KindText:
			g.box(x0, y0, x1, y1, ' ', f)
			label := snap.Texts[pl.Index].Value
			if x1-x0 < 2 || y1-y0 < 2 {
				g.text(x0, y0, x1, label)
			} else {
				g.text(x0+1, y0+(y1-y0)/2, x1-1, label)
			}
		case collage.KindImage:
			g.box(x0, y0, x1, y1, '░', f)
			w, h := snap.Images[pl.Index].PixelSize()
			g.text(x0+1, y0, x1-1, fmt.Sprintf("%dx%d", w, h))
			g.set(x1, y1, '◢')
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, g.String(), m.statusBar(), m.footer())
}

func (m *Model) statusBar() string {
	hq := "off"
	if m.highQuality {
		hq = "on"
	}
	status := fmt.Sprintf(" %s · HQ %s · %d texts · %d images",
		m.preset().Name, hq, m.ctrl.Count(collage.KindText), m.ctrl.Count(collage.KindImage))
	if sel, ok := m.ctrl.Selection(); ok {
		status += selectedText.Render(fmt.Sprintf(" · selected %s #%d", sel.Kind, sel.Index))
	}
	if m.exporting {
		status += " · exporting"
	}
	return statusStyle.Width(max(1, m.width)).Render(status)
}

func (m *Model) footer() string {
	if m.prompt != promptNone {
		return m.input.View()
	}
	switch {
	case m.notice == "":
		return helpStyle.Render(helpText)
	case m.failed:
		return errorStyle.Render(m.notice)
	}
	return noticeStyle.Render(m.notice)
}
