package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/stagelist/internal/models"
)

const titleWidth = 32

// songRow is one rendered line of the song list.
type songRow struct {
	song     models.Song
	cursor   bool
	playing  bool
	beat     bool
	dragging bool
}

func (r songRow) String() string {
	mark := "  "
	if r.cursor {
		mark = styles.cursor.Render("› ")
	}

	bar := styles.As("▌", songColor(r.song.Color))
	title := fit(r.song.Title, titleWidth)
	if r.playing {
		title = styles.selected.Render(title)
	}

	line := fmt.Sprintf("%s%s %2d. %s %3d BPM", mark, bar, r.song.Number, title, r.song.BPM)
	if r.song.Locked {
		line += " " + styles.warn.Render("🔒")
	}
	if r.playing {
		pulse := "○"
		if r.beat {
			pulse = "●"
		}
		line += " " + styles.ok.Render("▶ "+pulse)
	}
	if r.dragging {
		line += " " + styles.help.Render("(moving)")
	}
	return line
}

// fit truncates or pads s to exactly w terminal cells.
func fit(s string, w int) string {
	if lipgloss.Width(s) > w {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes))+1 > w {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + "…"
	}
	return s + strings.Repeat(" ", max(0, w-lipgloss.Width(s)))
}
