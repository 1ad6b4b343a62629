package database

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gallery/internal/mediatypes"
)

// TestRecordQuery tests the recordQuery helper function.
func TestRecordQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		operation string
		err       error
	}{
		{name: "successful query", operation: "test_operation", err: nil},
		{name: "failed query", operation: "test_operation", err: errors.New("test error")},
		{name: "empty operation name", operation: "", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			start := time.Now()
			time.Sleep(1 * time.Millisecond)

			recordQuery(tt.operation, start, tt.err)

			if time.Since(start) < 1*time.Millisecond {
				t.Error("recordQuery should have measured non-zero duration")
			}
		})
	}
}

func TestPrefixRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		lo     string
		hi     string
		inside []string
		out    []string
	}{
		{
			name:   "nested folder",
			prefix: "/a/b",
			lo:     "/a/b/",
			hi:     "/a/b0",
			inside: []string{"/a/b/c", "/a/b/c/d", "/a/b/~x", "/a/b/ "},
			out:    []string{"/a/b", "/a/bc", "/a/b!", "/a/b-x", "/a/B/c", "/a/c/d", "/a/b0"},
		},
		{
			name:   "root",
			prefix: "/",
			lo:     "/",
			hi:     "0",
			inside: []string{"/a", "/a/b", "/~"},
			out:    []string{"", ".", "0"},
		},
		{
			name:   "like metacharacters are literal",
			prefix: "/a_%",
			lo:     "/a_%/",
			hi:     "/a_%0",
			inside: []string{"/a_%/x"},
			out:    []string{"/ab%/x", "/a_x/x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lo, hi := prefixRange(tt.prefix)
			if lo != tt.lo || hi != tt.hi {
				t.Fatalf("prefixRange(%q) = (%q, %q), want (%q, %q)", tt.prefix, lo, hi, tt.lo, tt.hi)
			}
			for _, p := range tt.inside {
				if !(p >= lo && p < hi) {
					t.Errorf("%q should be inside range of %q", p, tt.prefix)
				}
			}
			for _, p := range tt.out {
				if p >= lo && p < hi {
					t.Errorf("%q should be outside range of %q", p, tt.prefix)
				}
			}
		})
	}
}

func TestOrderClause(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sort       mediatypes.SortField
		reverse    bool
		wantPrefix string
		wantSeeded bool
	}{
		{sort: mediatypes.SortByName, wantPrefix: "name COLLATE NOCASE ASC"},
		{sort: mediatypes.SortByName, reverse: true, wantPrefix: "name COLLATE NOCASE DESC"},
		{sort: mediatypes.SortByTaken, wantPrefix: "timestamp ASC"},
		{sort: mediatypes.SortByModified, reverse: true, wantPrefix: "mtime DESC"},
		{sort: mediatypes.SortByRandom, wantPrefix: "hash(? || path) ASC", wantSeeded: true},
		{sort: mediatypes.SortField("bogus"), wantPrefix: "name COLLATE NOCASE ASC"},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			t.Parallel()

			clause, seeded := orderClause(tt.sort, tt.reverse, "timestamp")
			if !strings.HasPrefix(clause, tt.wantPrefix) {
				t.Errorf("orderClause(%s) = %q, want prefix %q", tt.sort, clause, tt.wantPrefix)
			}
			if !strings.Contains(clause, ", path ") {
				t.Errorf("orderClause(%s) = %q, want a path tiebreak", tt.sort, clause)
			}
			if seeded != tt.wantSeeded {
				t.Errorf("orderClause(%s) seeded = %v, want %v", tt.sort, seeded, tt.wantSeeded)
			}
		})
	}
}

func TestPathHashDeterministic(t *testing.T) {
	t.Parallel()

	if pathHash("seed/a.jpg") != pathHash("seed/a.jpg") {
		t.Error("pathHash should be deterministic")
	}
	if pathHash("seed/a.jpg") == pathHash("seed/b.jpg") {
		t.Error("pathHash should differ for different inputs")
	}
}

func TestNormalizePage(t *testing.T) {
	t.Parallel()

	q := MediaQuery{}
	normalizePage(&q)
	if q.Page != 1 || q.PageSize != DefaultPageSize {
		t.Errorf("normalizePage() = page %d size %d, want 1 %d", q.Page, q.PageSize, DefaultPageSize)
	}

	q = MediaQuery{Page: 3, PageSize: 10}
	normalizePage(&q)
	if q.Page != 3 || q.PageSize != 10 {
		t.Errorf("normalizePage() changed explicit values: page %d size %d", q.Page, q.PageSize)
	}
}
