// Package codec maps entities to and from their stored forms: one line of
// delimited text for file stores, one Document for document stores.
//
// Field order is fixed per entity type. The delimiter is never escaped;
// instead EncodeLine refuses values containing it, so a written line always
// decodes back to the entity it came from.
//
// Timestamps are stored in UTC. An entity whose times carry another zone
// decodes to the same instant in UTC, which is time.Time.Equal but not ==
// to the original; callers wanting exact round trips pass UTC times.
package codec

import (
	"fmt"
	"strings"
	"time"

	"taskline/internal/docdb"
	"taskline/internal/errs"
)

// Delimiter separates fields within a line.
const Delimiter = "|"

// Codec encodes and decodes one entity type.
type Codec[T any] interface {
	// Collection names the file or collection holding this entity type.
	Collection() string
	ID(T) string
	EncodeLine(T) (string, error)
	DecodeLine(string) (T, error)
	EncodeDocument(T) (docdb.Document, error)
	DecodeDocument(docdb.Document) (T, error)
}

// ContainsReserved reports whether v cannot be stored in a line field.
func ContainsReserved(v string) bool {
	return strings.ContainsAny(v, Delimiter+"\r\n")
}

func joinLine(collection string, fields ...string) (string, error) {
	for i, f := range fields {
		if ContainsReserved(f) {
			return "", errs.Errorf(errs.MalformedRecord, collection+".encode",
				"field %d contains the delimiter or a line break", i+1)
		}
	}
	return strings.Join(fields, Delimiter), nil
}

func splitLine(collection, line string, arity int) ([]string, error) {
	fields := strings.Split(line, Delimiter)
	if len(fields) != arity {
		return nil, errs.Errorf(errs.MalformedRecord, collection+".decode",
			"expected %d fields, got %d", arity, len(fields))
	}
	if fields[0] == "" {
		return nil, errs.Errorf(errs.MalformedRecord, collection+".decode", "empty identifier")
	}
	return fields, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(collection, field, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, &errs.Error{
			Kind: errs.MalformedRecord,
			Op:   collection + ".decode",
			Msg:  fmt.Sprintf("invalid %s %q", field, v),
			Err:  err,
		}
	}
	return t.UTC(), nil
}

func malformedEnum(collection, field string, err error) error {
	return &errs.Error{Kind: errs.MalformedRecord, Op: collection + ".decode", Msg: "invalid " + field, Err: err}
}

// docReader pulls text fields out of a Document, remembering the first
// failure so decoders read straight through.
type docReader struct {
	collection string
	doc        docdb.Document
	err        error
}

func (r *docReader) str(key string) string {
	if r.err != nil {
		return ""
	}
	v, ok := r.doc[key]
	if !ok {
		r.err = errs.Errorf(errs.MalformedRecord, r.collection+".decode", "missing field %s", key)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.err = errs.Errorf(errs.MalformedRecord, r.collection+".decode", "field %s is %T, want string", key, v)
		return ""
	}
	return s
}

func (r *docReader) id() string {
	v := r.str("id")
	if r.err == nil && v == "" {
		r.err = errs.Errorf(errs.MalformedRecord, r.collection+".decode", "empty identifier")
	}
	return v
}

func (r *docReader) timestamp(key string) time.Time {
	v := r.str(key)
	if r.err != nil {
		return time.Time{}
	}
	t, err := parseTime(r.collection, key, v)
	if err != nil {
		r.err = err
	}
	return t
}
