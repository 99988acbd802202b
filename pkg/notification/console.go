package notification

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Console prints notifications as single styled lines, like a toast on a terminal
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	plain bool
}

// NewConsole writes to out. plain disables styling (for pipes and tests).
func NewConsole(out io.Writer, plain bool) *Console {
	return &Console{out: out, plain: plain}
}

func (c *Console) Notify(n Notification) {
	label := string(n.Level)
	if !c.plain {
		label = styleFor(n.Level).Render(label)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, "%s: %s\n", label, n.Message)
}

func styleFor(level Level) lipgloss.Style {
	switch level {
	case LevelError:
		return errorStyle
	case LevelWarning:
		return warningStyle
	default:
		return infoStyle
	}
}
