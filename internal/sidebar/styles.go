package sidebar

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/arbordev/arbor/internal/git"
)

// Palette.
var (
	colorSelected  = lipgloss.Color("62")
	colorDir       = lipgloss.Color("75")
	colorFile      = lipgloss.Color("252")
	colorMuted     = lipgloss.Color("241")
	colorStaged    = lipgloss.Color("42")
	colorModified  = lipgloss.Color("214")
	colorUntracked = lipgloss.Color("135")
	colorDeleted   = lipgloss.Color("196")
	colorIgnored   = lipgloss.Color("240")
	colorOrphan    = lipgloss.Color("196")
	colorCut       = lipgloss.Color("203")
	colorCopy      = lipgloss.Color("114")
)

// Styles holds the rendering styles for the sidebar.
type Styles struct {
	Selected  lipgloss.Style
	Dir       lipgloss.Style
	File      lipgloss.Style
	Muted     lipgloss.Style
	Staged    lipgloss.Style
	Modified  lipgloss.Style
	Untracked lipgloss.Style
	Deleted   lipgloss.Style
	Ignored   lipgloss.Style
	Orphan    lipgloss.Style
	Cut       lipgloss.Style
	Copy      lipgloss.Style
	Title     lipgloss.Style
	Prompt    lipgloss.Style
}

// DefaultStyles returns the default sidebar styles.
func DefaultStyles() Styles {
	return Styles{
		Selected:  lipgloss.NewStyle().Background(colorSelected).Foreground(lipgloss.Color("230")),
		Dir:       lipgloss.NewStyle().Foreground(colorDir).Bold(true),
		File:      lipgloss.NewStyle().Foreground(colorFile),
		Muted:     lipgloss.NewStyle().Foreground(colorMuted),
		Staged:    lipgloss.NewStyle().Foreground(colorStaged),
		Modified:  lipgloss.NewStyle().Foreground(colorModified),
		Untracked: lipgloss.NewStyle().Foreground(colorUntracked),
		Deleted:   lipgloss.NewStyle().Foreground(colorDeleted),
		Ignored:   lipgloss.NewStyle().Foreground(colorIgnored),
		Orphan:    lipgloss.NewStyle().Foreground(colorOrphan),
		Cut:       lipgloss.NewStyle().Foreground(colorCut),
		Copy:      lipgloss.NewStyle().Foreground(colorCopy),
		Title:     lipgloss.NewStyle().Foreground(colorDir).Bold(true),
		Prompt:    lipgloss.NewStyle().Foreground(colorModified),
	}
}

// statusGlyph maps a two-letter porcelain code to a styled indicator.
// Directories carrying the synthetic dirty marker render as a dot.
func (s Styles) statusGlyph(code git.Code) string {
	switch {
	case code == git.Dirty:
		return s.Modified.Render("●")
	case code.IsUntracked():
		return s.Untracked.Render("?")
	case code == "!!":
		return s.Ignored.Render("!")
	}

	glyph := ""
	if code.Staged() {
		glyph += s.Staged.Render(string(code[0]))
	}
	if len(code) > 1 && code[1] != ' ' {
		switch code[1] {
		case 'D':
			glyph += s.Deleted.Render("D")
		default:
			glyph += s.Modified.Render(string(code[1]))
		}
	}
	return glyph
}
