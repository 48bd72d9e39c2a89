package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Extra holds record keys that the typed fields do not declare. They are
// written back unchanged, so a read-modify-write cycle keeps them.
type Extra map[string]json.RawMessage

// Merge returns the keys of e overlaid with those of update.
func (e Extra) Merge(update Extra) Extra {
	if len(e) == 0 {
		return update
	}
	merged := make(Extra, len(e)+len(update))
	for k, v := range e {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}

var knownKeysCache sync.Map // reflect.Type -> map[string]bool

// knownKeys returns the lower-cased JSON keys declared by struct type t.
func knownKeys(t reflect.Type) map[string]bool {
	if cached, ok := knownKeysCache.Load(t); ok {
		return cached.(map[string]bool)
	}

	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			if tag == "-" {
				continue
			}
			if n, _, _ := strings.Cut(tag, ","); n != "" {
				name = n
			}
		}
		// encoding/json matches keys case-insensitively
		keys[strings.ToLower(name)] = true
	}

	knownKeysCache.Store(t, keys)
	return keys
}

// decodeWithExtra decodes data into v, a pointer to a struct without its own
// UnmarshalJSON, and returns the keys v does not declare.
func decodeWithExtra(data []byte, v any) (Extra, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	known := knownKeys(reflect.TypeOf(v).Elem())
	var extra Extra
	for k, val := range raw {
		if known[strings.ToLower(k)] {
			continue
		}
		if extra == nil {
			extra = make(Extra)
		}
		extra[k] = val
	}
	return extra, nil
}

// encodeWithExtra encodes v, a struct without its own MarshalJSON, and
// appends the extra keys in sorted order after the declared fields.
func encodeWithExtra(v any, extra Extra) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")
	if len(extra) == 0 {
		return data, nil
	}

	known := knownKeys(reflect.TypeOf(v))
	keys := make([]string, 0, len(extra))
	for k := range extra {
		if !known[strings.ToLower(k)] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return data, nil
	}
	sort.Strings(keys)

	out := make([]byte, 0, len(data)+64*len(keys))
	out = append(out, data[:len(data)-1]...)
	for i, k := range keys {
		if i > 0 || len(data) > 2 {
			out = append(out, ',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val := extra[k]
		if !json.Valid(val) {
			return nil, fmt.Errorf("extra key %q holds invalid JSON", k)
		}
		out = append(out, name...)
		out = append(out, ':')
		out = append(out, val...)
	}
	return append(out, '}'), nil
}

// Notes is the list of operator notes on an order. Records written by older
// admin screens hold a single string instead of a list; it reads as one note.
type Notes []OrderNote

// UnmarshalJSON accepts a list of notes or note strings, a string, or null.
func (n *Notes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = nil
		return nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			*n = nil
			return nil
		}
		*n = Notes{{Text: text}}
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		notes := make(Notes, 0, len(items))
		for _, item := range items {
			var note OrderNote
			if t := bytes.TrimSpace(item); len(t) > 0 && t[0] == '"' {
				if err := json.Unmarshal(t, &note.Text); err != nil {
					return err
				}
			} else if err := json.Unmarshal(item, &note); err != nil {
				return err
			}
			notes = append(notes, note)
		}
		*n = notes
		return nil
	default:
		return fmt.Errorf("notes: unexpected JSON %.20s", trimmed)
	}
}
