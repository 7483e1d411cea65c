// Package datefmt renders and parses date buckets using strftime patterns.
package datefmt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DefaultPattern is the bucket format used when none is configured.
const DefaultPattern = "%Y-%m-%d"

// ErrUnparsable is returned when a date override matches no known form.
var ErrUnparsable = errors.New("unrecognised date")

// Bucket formats t with pattern.
func Bucket(pattern string, t time.Time) string {
	return strftime.Format(pattern, t)
}

// Validate checks that pattern yields a usable single directory name.
func Validate(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return errors.New("date format is empty")
	}
	sample := Bucket(pattern, time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC))
	if sample == "" || sample == "." || sample == ".." || strings.ContainsAny(sample, `/\`) {
		return fmt.Errorf("date format %q does not produce a valid directory name (got %q)", pattern, sample)
	}
	return nil
}

// Parser turns user supplied date overrides into times.
type Parser struct {
	pattern string
	natural *when.Parser
}

// NewParser returns a Parser for buckets written with pattern.
func NewParser(pattern string) *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{pattern: pattern, natural: w}
}

// Parse accepts, in order, text in the bucket pattern itself, an ISO date,
// or an English expression such as "yesterday" or "last friday" evaluated
// relative to now.
func (p *Parser) Parse(text string, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnparsable)
	}
	if layout, err := strftime.Layout(p.pattern); err == nil {
		if t, err := time.ParseInLocation(layout, text, now.Location()); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation(time.DateOnly, text, now.Location()); err == nil {
		return t, nil
	}
	r, err := p.natural.Parse(text, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnparsable, text, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, text)
	}
	return r.Time, nil
}
