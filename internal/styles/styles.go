package styles

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/sqve/avalanche/internal/config"
)

var (
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	Dimmed  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	Bold    = lipgloss.NewStyle().Bold(true)
)

const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "•"
)

func Render(style *lipgloss.Style, text string) string {
	if config.IsPlain() {
		return text
	}

	// lipgloss disables colors when stdout is not a terminal; some tests need
	// them.
	if os.Getenv("AVALANCHE_TEST_COLORS") == "true" {
		lipgloss.SetColorProfile(termenv.ANSI256)
	}

	return style.Render(text)
}

// Symbol returns the glyph for a message kind, or an ASCII tag in plain mode.
func Symbol(kind string) string {
	plain := config.IsPlain()
	switch kind {
	case "success":
		if plain {
			return "[ok]"
		}
		return Render(&Success, SymbolSuccess)
	case "error":
		if plain {
			return "[error]"
		}
		return Render(&Error, SymbolError)
	case "warning":
		if plain {
			return "[warn]"
		}
		return Render(&Warning, SymbolWarning)
	default:
		if plain {
			return "[info]"
		}
		return Render(&Info, SymbolInfo)
	}
}
