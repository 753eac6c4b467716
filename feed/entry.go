package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Entry is one song as published by the playlist feed. Entries are never
// revised once issued.
type Entry struct {
	Index    int64   `json:"index"`
	Hash     string  `json:"hash"`
	FileName string  `json:"fileName"`
	Author   string  `json:"author"`
	Title    string  `json:"title"`
	Genre    string  `json:"genre"`
	MPM      float64 `json:"mpm,omitempty"`
}

// HasTempo reports whether the entry carries a usable tempo.
func (e Entry) HasTempo() bool {
	return e.MPM > 0
}

// UnmarshalJSON accepts index and mpm either as JSON numbers or as numeric
// strings. A missing or null mpm decodes to zero.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Index    json.RawMessage `json:"index"`
		Hash     string          `json:"hash"`
		FileName string          `json:"fileName"`
		Author   string          `json:"author"`
		Title    string          `json:"title"`
		Genre    string          `json:"genre"`
		MPM      json.RawMessage `json:"mpm"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	index, err := looseNumber(raw.Index)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if index == nil {
		return fmt.Errorf("index: missing")
	}
	if !wholeInt64(*index) {
		return fmt.Errorf("index: %v is not an integer index", *index)
	}
	mpm, err := looseNumber(raw.MPM)
	if err != nil {
		return fmt.Errorf("mpm: %w", err)
	}

	*e = Entry{
		Index:    int64(*index),
		Hash:     raw.Hash,
		FileName: raw.FileName,
		Author:   raw.Author,
		Title:    raw.Title,
		Genre:    raw.Genre,
	}
	if mpm != nil {
		e.MPM = *mpm
	}
	return nil
}

// wholeInt64 reports whether f is an integer representable as int64.
func wholeInt64(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64
}

func looseNumber(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var n float64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		n = v
	} else if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// DecodeBatch parses a feed response body. The body must be a JSON array;
// null elements are kept as nil so the merge step can skip them.
func DecodeBatch(body []byte) ([]*Entry, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return nil, fmt.Errorf("%w: payload is not an array", ErrDecode)
	}

	var entries []*Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return entries, nil
}
