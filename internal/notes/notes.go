// Package notes reads and writes the case notes file format.
//
// Line one holds the case summary:
//
//	# 15:04:05:  summary text
//
// and every later entry is appended as
//
//	## 15:04:05: note text
package notes

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"
)

// TimeLayout is the wall-clock stamp written on every line. It carries no
// date and no zone.
const TimeLayout = "15:04:05"

var stampRe = regexp.MustCompile(`^(\d{1,2}:\d{2}:\d{2}):\s*`)

// Result holds the output of parsing a notes file.
type Result struct {
	Opened  string
	Summary string
	Body    string
}

// SummaryLine renders the first line of a new notes file. Newlines in the
// summary are folded so it always occupies a single line.
func SummaryLine(at time.Time, summary string) string {
	summary = strings.Join(strings.Fields(summary), " ")
	return "# " + at.Format(TimeLayout) + ":  " + summary + "\n"
}

// EntryLine renders one appended log entry. Whitespace in the note is folded
// so every entry stays on one line.
func EntryLine(at time.Time, note string) string {
	note = strings.Join(strings.Fields(note), " ")
	return "## " + at.Format(TimeLayout) + ": " + note + "\n"
}

// Parse splits a notes file into its summary line and the verbatim body.
func Parse(data []byte) Result {
	first, body, _ := strings.Cut(string(data), "\n")
	res := parseSummary(first)
	res.Body = body
	return res
}

// ReadSummary reads only the first line of a notes file.
func ReadSummary(r io.Reader) (Result, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return Result{}, err
	}
	return parseSummary(line), nil
}

// parseSummary strips the heading markup and the time stamp from line one.
func parseSummary(line string) Result {
	line = trimMarkup(line)
	var res Result
	if m := stampRe.FindStringSubmatch(line); m != nil {
		res.Opened = m[1]
		line = line[len(m[0]):]
	}
	res.Summary = strings.TrimSpace(line)
	return res
}

// StripStamp removes a leading "<token>: " prefix, as written ahead of the
// summary, from a summary line. Text without such a prefix is returned trimmed.
func StripStamp(summary string) string {
	summary = trimMarkup(summary)
	if m := stampRe.FindString(summary); m != "" {
		return strings.TrimSpace(summary[len(m):])
	}
	return strings.TrimSpace(summary)
}

// trimMarkup drops the leading heading marks and the line ending. A trailing
// '#' belongs to the text.
func trimMarkup(line string) string {
	return strings.TrimRight(strings.TrimLeft(line, "# "), "\r\n ")
}
