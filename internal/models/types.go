package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StringList is a list of strings that also accepts a comma-separated
// string on input ("go, sql" -> ["go", "sql"]).
type StringList []string

// SplitTags splits a comma-separated tag input, trimming entries and
// dropping empty ones.
func SplitTags(s string) StringList {
	out := StringList{}
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = SplitTags(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("expected a list of strings or a comma-separated string: %w", err)
	}
	*l = StringList(items)
	return nil
}

// MarshalJSON writes nil lists as [] so clients always get an array.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l StringList) Clone() StringList {
	if l == nil {
		return StringList{}
	}
	out := make(StringList, len(l))
	copy(out, l)
	return out
}

// IDList is a set of user ids kept in insertion order.
type IDList []int

// MarshalJSON writes nil lists as [].
func (l IDList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(l))
}

func (l IDList) Contains(id int) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends id unless present and reports whether it was added.
func (l *IDList) Add(id int) bool {
	if l.Contains(id) {
		return false
	}
	*l = append(*l, id)
	return true
}

// Remove drops id and reports whether it was present.
func (l *IDList) Remove(id int) bool {
	for i, v := range *l {
		if v == id {
			*l = append((*l)[:i:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

// DateLayout is the wire format of Date.
const DateLayout = "2006-01-02"

// Date is a calendar day, serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		// Older documents may carry full timestamps.
		full, ferr := time.Parse(time.RFC3339, s)
		if ferr != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
		t = full
	}
	*d = DateOf(t)
	return nil
}
