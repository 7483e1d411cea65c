// Package prompt asks the user for text on the terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/starford/casefile/internal/apperr"
)

// Prompter asks for a single line of text.
type Prompter interface {
	Prompt(ctx context.Context, title string) (string, error)
}

// Form prompts with a huh input field on an interactive terminal.
type Form struct{}

// Prompt shows a single line input titled title.
func (Form) Prompt(ctx context.Context, title string) (string, error) {
	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(&value),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
			return "", apperr.ErrInterrupted
		}
		return "", err
	}
	return value, nil
}

// Line reads one line from a plain reader, for piped input.
type Line struct {
	In  *bufio.Reader
	Out io.Writer
}

// NewLine returns a Line prompter over in, echoing titles to out.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{In: bufio.NewReader(in), Out: out}
}

// Prompt prints title and reads up to the next newline.
func (l *Line) Prompt(ctx context.Context, title string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.ErrInterrupted
	}
	fmt.Fprintf(l.Out, "%s: ", title)
	text, err := l.In.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(text, "\r\n"), nil
}

// Interactive reports whether stdin is a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Terminal picks the huh form on a terminal and plain line input otherwise.
func Terminal() Prompter {
	if Interactive() {
		return Form{}
	}
	return NewLine(os.Stdin, os.Stderr)
}
