package device

import (
	"context"
	"io"
	"os"
	"strings"

	"codeberg.org/mutker/serialstat/internal/errors"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// HuhPrompter reads the device identifier from the terminal. When stdin
// is not a terminal it falls back to huh's line-based accessible mode.
type HuhPrompter struct {
	In  io.Reader
	Out io.Writer
	// Suggestion is shown as the input placeholder
	Suggestion string
}

func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{
		In:         os.Stdin,
		Out:        os.Stdout,
		Suggestion: defaultSuggestion(),
	}
}

func (p *HuhPrompter) Prompt(ctx context.Context) (string, error) {
	errFactory := errors.New()

	var name string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Serial device").
				Description("No display found automatically. Leave empty to quit.").
				Placeholder(p.Suggestion).
				Value(&name),
		),
	).
		WithInput(p.In).
		WithOutput(p.Out).
		WithAccessible(!isTerminal(p.In))

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", errFactory.New(errors.ErrOperatorAbort)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errFactory.Wrap(errors.ErrDiscovery, err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", errFactory.New(errors.ErrOperatorAbort)
	}

	return name, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func defaultSuggestion() string {
	if os.PathSeparator == '\\' {
		return "COM3"
	}
	return "/dev/ttyUSB0"
}
