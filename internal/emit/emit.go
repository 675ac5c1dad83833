// Package emit writes target relations as newline-delimited JSON.
package emit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/val3rkq/osmbounds/internal/apperr"
	"github.com/val3rkq/osmbounds/internal/osm"
	"github.com/val3rkq/osmbounds/internal/predicate"
)

// Record is the JSON shape of one emitted line.
type Record struct {
	Type    string            `json:"type"`
	ID      int64             `json:"id"`
	Tags    map[string]string `json:"tags"`
	Members []MemberRecord    `json:"members"`
}

type MemberRecord struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

func NewRecord(r *osm.Relation) Record {
	tags := map[string]string(r.Tags)
	if tags == nil {
		tags = map[string]string{}
	}
	members := make([]MemberRecord, len(r.Members))
	for i, m := range r.Members {
		members[i] = MemberRecord{Type: m.ID.Type.String(), ID: m.ID.Ref, Role: m.Role}
	}
	return Record{Type: osm.TypeRelation.String(), ID: r.Ref, Tags: tags, Members: members}
}

// Relation converts the record back into the model.
func (rec Record) Relation() (*osm.Relation, error) {
	if rec.Type != osm.TypeRelation.String() {
		return nil, fmt.Errorf("record %d: type %q is not a relation", rec.ID, rec.Type)
	}
	members := make([]osm.Member, len(rec.Members))
	for i, m := range rec.Members {
		t, err := osm.ParseType(m.Type)
		if err != nil {
			return nil, fmt.Errorf("record %d member %d: %w", rec.ID, i, err)
		}
		members[i] = osm.Member{ID: osm.ObjectID{Type: t, Ref: m.ID}, Role: m.Role}
	}
	return &osm.Relation{Ref: rec.ID, Members: members, Tags: osm.Tags(rec.Tags)}, nil
}

// ParseRecord decodes one emitted line.
func ParseRecord(line []byte) (*osm.Relation, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, err
	}
	return rec.Relation()
}

// Emit writes every target relation of rs to w, one JSON document per line,
// in ObjectID order, and returns how many lines were written. The buffer is
// flushed even when a later write fails; lines already written stay written.
func Emit(rs *osm.ResultSet, eval *predicate.Evaluator, w io.Writer) (n int, err error) {
	buf := bufio.NewWriter(w)
	defer func() {
		if ferr := buf.Flush(); ferr != nil && err == nil {
			err = apperr.IO("flush records", "", ferr)
		}
	}()

	for id, obj := range rs.All() {
		if !eval.IsTargetRelation(obj) {
			continue
		}
		var rel *osm.Relation
		switch o := obj.(type) {
		case *osm.Relation:
			rel = o
		case *osm.Node, *osm.Way:
			continue
		default:
			return n, apperr.Serialization("encode "+id.String(), fmt.Errorf("unexpected object %T", o))
		}

		line, err := json.Marshal(NewRecord(rel))
		if err != nil {
			return n, apperr.Serialization("encode "+id.String(), err)
		}
		line = append(line, '\n')
		if _, err := buf.Write(line); err != nil {
			return n, apperr.IO("write records", "", err)
		}
		n++
	}
	return n, nil
}
