package prompt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/casefile/internal/apperr"
)

func TestLinePrompt(t *testing.T) {
	var out bytes.Buffer
	p := NewLine(strings.NewReader("disk full on db1\r\nignored\n"), &out)
	got, err := p.Prompt(context.Background(), "Case summary")
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	if got != "disk full on db1" {
		t.Errorf("got %q", got)
	}
	if out.String() != "Case summary: " {
		t.Errorf("prompt text = %q", out.String())
	}
}

func TestLinePromptEOF(t *testing.T) {
	p := NewLine(strings.NewReader(""), &bytes.Buffer{})
	got, err := p.Prompt(context.Background(), "x")
	if err != nil || got != "" {
		t.Errorf("got %q, %v; want empty, nil", got, err)
	}
}

func TestLinePromptCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewLine(strings.NewReader("text\n"), &bytes.Buffer{})
	if _, err := p.Prompt(ctx, "x"); !errors.Is(err, apperr.ErrInterrupted) {
		t.Errorf("err = %v, want ErrInterrupted", err)
	}
}
