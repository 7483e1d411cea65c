// Package models defines the domain types for CaseFile.
package models

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/casefile/internal/apperr"
)

// CaseRef identifies a case by its date bucket and serial.
type CaseRef struct {
	DateBucket string `json:"date_bucket"`
	Serial     string `json:"serial"`
}

// String returns the "<date_bucket>/<serial>" form used on the command line.
func (r CaseRef) String() string {
	return r.DateBucket + "/" + r.Serial
}

// Dir returns the case directory relative to the store base.
func (r CaseRef) Dir() string {
	return filepath.Join(r.DateBucket, r.Serial)
}

// Compare orders refs by date bucket, then serial.
func (r CaseRef) Compare(o CaseRef) int {
	if c := strings.Compare(r.DateBucket, o.DateBucket); c != 0 {
		return c
	}
	return strings.Compare(r.Serial, o.Serial)
}

// ParseRef parses "<date_bucket>/<serial>". Either separator is accepted.
func ParseRef(s string) (CaseRef, error) {
	s = strings.TrimSpace(filepath.ToSlash(s))
	s = strings.Trim(s, "/")
	bucket, serial, ok := strings.Cut(s, "/")
	if !ok || !validElement(bucket) || !validElement(serial) {
		return CaseRef{}, fmt.Errorf("%w: %q (want <date>/<serial>)", apperr.ErrInvalidRef, s)
	}
	return CaseRef{DateBucket: bucket, Serial: serial}, nil
}

// validElement reports whether s can be used as a single directory name.
func validElement(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}

// Case is the parsed content of a case's notes file.
type Case struct {
	Ref     CaseRef `json:"ref"`
	Opened  string  `json:"opened,omitempty"` // HH:MM:SS from the summary line
	Summary string  `json:"summary"`
	Body    string  `json:"body"`
}

// CaseSummary pairs a case with the summary line of its notes.
type CaseSummary struct {
	Ref     CaseRef `json:"ref"`
	Summary string  `json:"summary"`
}
