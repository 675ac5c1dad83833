// Package stats tallies candidate relations by their boundary tag.
package stats

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/val3rkq/osmbounds/internal/apperr"
	"github.com/val3rkq/osmbounds/internal/osm"
	"github.com/val3rkq/osmbounds/internal/predicate"
)

// AbsentLabel is printed for relations without a boundary tag.
const AbsentLabel = "(none)"

// Key is a boundary value; Present is false when the tag is missing, which
// keeps a missing tag apart from an empty one.
type Key struct {
	Value   string
	Present bool
}

func (k Key) String() string {
	if !k.Present {
		return AbsentLabel
	}
	return k.Value
}

type Tally map[Key]int

type Entry struct {
	Key   Key
	Count int
}

// Count accumulates every candidate relation in rs.
func Count(rs *osm.ResultSet, eval *predicate.Evaluator) Tally {
	t := Tally{}
	for _, obj := range rs.All() {
		if !eval.IsCandidateRelation(obj) {
			continue
		}
		v, ok := obj.TagMap().Get("boundary")
		t[Key{Value: v, Present: ok}]++
	}
	return t
}

// Sorted orders entries by count descending, then by value, with the absent
// bucket after present values of the same count.
func (t Tally) Sorted() []Entry {
	out := make([]Entry, 0, len(t))
	for k, n := range t {
		out = append(out, Entry{Key: k, Count: n})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if a.Key.Present != b.Key.Present {
			if a.Key.Present {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Key.Value, b.Key.Value)
	})
	return out
}

func Summarize(rs *osm.ResultSet, eval *predicate.Evaluator) []Entry {
	return Count(rs, eval).Sorted()
}

// WriteReport prints one "<value> <count>" line per entry.
func WriteReport(w io.Writer, entries []Entry) error {
	buf := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(buf, "%s %d\n", e.Key, e.Count); err != nil {
			return apperr.IO("write report", "", err)
		}
	}
	if err := buf.Flush(); err != nil {
		return apperr.IO("write report", "", err)
	}
	return nil
}
