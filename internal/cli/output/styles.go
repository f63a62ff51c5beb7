package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the text styles used in terminal output.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles(out *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:  out.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Bold:    out.NewStyle().Bold(true),
		Muted:   out.NewStyle().Foreground(lipgloss.Color("8")),
		Success: out.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: out.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   out.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// colorProfile disables colors when output is not a terminal.
func colorProfile(isTTY bool) termenv.Profile {
	if isTTY {
		return termenv.EnvColorProfile()
	}
	return termenv.Ascii
}

// Styles returns the renderer's styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to Out.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.Out, a...)
}

// Printf writes formatted text to Out.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.Out, format, a...)
}

// Status writes a styled status line to ErrOut.
func (r *Renderer) Status(style lipgloss.Style, format string, a ...any) {
	_, _ = fmt.Fprintln(r.ErrOut, style.Render(fmt.Sprintf(format, a...)))
}
