package console

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/GriffinCanCode/buildwatch/internal/domain/router"
)

// Console streams log lines to a terminal or file. Supervisor status lines
// are highlighted, tab prefixes are dimmed, and child escape sequences are
// stripped when color is off.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *lipgloss.Renderer
	color    bool
	tty      bool
	err      error

	tabStyle    lipgloss.Style
	loggerStyle lipgloss.Style
	headerStyle lipgloss.Style
}

// NewConsole creates a console writing to w
func NewConsole(w io.Writer, mode ColorMode) *Console {
	profile := profileFor(w, mode)
	r := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	r.SetColorProfile(profile)

	return &Console{
		w:           w,
		renderer:    r,
		color:       profile != termenv.Ascii,
		tty:         IsTerminal(w),
		tabStyle:    r.NewStyle().Faint(true),
		loggerStyle: r.NewStyle().Foreground(lipgloss.Color("12")),
		headerStyle: r.NewStyle().Bold(true),
	}
}

// Append writes one line
func (c *Console) Append(tab, text string, ch router.Channel) {
	if !c.color {
		text = ansi.Strip(text)
	}

	var b strings.Builder
	switch {
	case ch == router.Logger:
		b.WriteString(c.loggerStyle.Render(Label(tab, text)))
	case tab != "":
		b.WriteString(c.tabStyle.Render(tab + ":"))
		b.WriteString(text)
	default:
		b.WriteString(text)
	}
	b.WriteByte('\n')

	c.write(b.String())
}

// Clear wipes the screen when writing to a terminal
func (c *Console) Clear() {
	if c.tty {
		c.write(ansi.EraseEntireScreen + ansi.CursorHomePosition)
	}
}

// ShowWatch prints the current watch table
func (c *Console) ShowWatch(t *WatchTable) {
	if t.Len() == 0 {
		c.write(c.loggerStyle.Render("(no watch values)") + "\n")
		return
	}
	c.write(c.headerStyle.Render("Watch") + "\n" + t.Render(c.renderer) + "\n")
}

// Err returns the first write error
func (c *Console) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	_, c.err = io.WriteString(c.w, s)
}
