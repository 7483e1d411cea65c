package datefmt

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestBucket(t *testing.T) {
	tests := map[string]string{
		DefaultPattern: "2024-03-15",
		"%Y%m%d":       "20240315",
		"%d.%m.%y":     "15.03.24",
	}
	for pattern, want := range tests {
		if got := Bucket(pattern, now); got != want {
			t.Errorf("Bucket(%q) = %q, want %q", pattern, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(DefaultPattern); err != nil {
		t.Errorf("default pattern: %v", err)
	}
	for _, bad := range []string{"", "  ", "%Y/%m/%d"} {
		if err := Validate(bad); err == nil {
			t.Errorf("Validate(%q) should fail", bad)
		}
	}
}

func TestParseBucketPattern(t *testing.T) {
	p := NewParser("%Y%m%d")
	got, err := p.Parse("20240101", now)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if Bucket("%Y%m%d", got) != "20240101" {
		t.Errorf("got %v", got)
	}
}

func TestParseISO(t *testing.T) {
	p := NewParser("%d.%m.%y")
	got, err := p.Parse("2024-01-01", now)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.January || got.Day() != 1 {
		t.Errorf("got %v", got)
	}
}

func TestParseNatural(t *testing.T) {
	p := NewParser(DefaultPattern)
	got, err := p.Parse("yesterday", now)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if Bucket(DefaultPattern, got) != "2024-03-14" {
		t.Errorf("yesterday = %v", got)
	}
}

func TestParseGarbage(t *testing.T) {
	p := NewParser(DefaultPattern)
	if _, err := p.Parse("   ", now); !errors.Is(err, ErrUnparsable) {
		t.Errorf("err = %v, want ErrUnparsable", err)
	}
}
