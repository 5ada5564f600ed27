// Package render draws game snapshots as text for terminal clients.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/opd-ai/go-stellar/pkg/engine"
	"github.com/opd-ai/go-stellar/pkg/galaxy"
)

// TerminalRenderer draws an ASCII star map and empire summary.
type TerminalRenderer struct {
	width  int
	height int
	buffer [][]rune
}

// NewTerminalRenderer creates a renderer with the given character grid.
func NewTerminalRenderer(width, height int) *TerminalRenderer {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}
	return &TerminalRenderer{
		width:  width,
		height: height,
		buffer: buffer,
	}
}

func (r *TerminalRenderer) clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = ' '
		}
	}
}

// mapToScreen scales galaxy coordinates onto the character grid.
func (r *TerminalRenderer) mapToScreen(g *galaxy.Galaxy, x, y int32) (int, int) {
	sx := int(int64(x) * int64(r.width-1) / int64(g.Width))
	sy := int(int64(y) * int64(r.height-1) / int64(g.Height))
	return sx, sy
}

// starSymbol picks the map glyph for a star: '*' while unowned, the
// owning empire's letter once colonized.
func starSymbol(s galaxy.Star) rune {
	if !s.Owned {
		return '*'
	}
	return rune('A' + s.Owner%26)
}

// Render writes the star map and per-empire summary for a snapshot.
func (r *TerminalRenderer) Render(w io.Writer, snap *engine.Snapshot) {
	r.clear()
	for _, s := range snap.Galaxy.Stars {
		x, y := r.mapToScreen(snap.Galaxy, s.X, s.Y)
		if x >= 0 && x < r.width && y >= 0 && y < r.height {
			r.buffer[y][x] = starSymbol(s)
		}
	}

	fmt.Fprintf(w, "%s  turn %d  %s\n", snap.Name, snap.TurnNumber, snap.Status)
	fmt.Fprintln(w, "+"+strings.Repeat("-", r.width)+"+")
	for y := range r.buffer {
		fmt.Fprintln(w, "|"+string(r.buffer[y])+"|")
	}
	fmt.Fprintln(w, "+"+strings.Repeat("-", r.width)+"+")

	for _, e := range snap.Empires {
		var ships uint32
		for _, f := range e.Fleets {
			ships += f.TotalShips()
		}
		tag := string(rune('A' + e.ID%26))
		status := ""
		if e.Forfeited {
			status = "  (forfeited)"
		} else if e.IsAI {
			status = "  (AI)"
		}
		fmt.Fprintf(w, "%s  %-20s colonies=%d fleets=%d ships=%d%s\n",
			tag, e.Name, len(e.Colonies), len(e.Fleets), ships, status)
	}
	if snap.VictoryType != "" {
		fmt.Fprintf(w, "game over: %s victory\n", snap.VictoryType)
	}
}
