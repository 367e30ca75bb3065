package domain

import (
	"errors"
	"fmt"
	"time"
)

// SourceType enumerates the kinds of upstream content sources.
type SourceType string

const (
	SourcePaper      SourceType = "paper"
	SourceRepository SourceType = "repository"
	SourceDiscussion SourceType = "discussion"
	SourceLink       SourceType = "link"
)

// SignalClass indicates believed importance of an item; red is highest.
type SignalClass string

const (
	SignalRed    SignalClass = "red"
	SignalYellow SignalClass = "yellow"
	SignalGreen  SignalClass = "green"
)

// Store error taxonomy. Callers branch with errors.Is.
var (
	ErrNotFound    = errors.New("item not found")
	ErrUnavailable = errors.New("store unavailable")
	ErrConflict    = errors.New("concurrent write conflict")
)

// RawRecord is an opaque source record. Adapters emit it verbatim; only the
// Normalizer interprets specific keys per source type.
type RawRecord map[string]any

// Identifier extracts a best-effort record identifier for error reporting.
// It does not replace normalization; a record failing here is reported as
// unidentified rather than dropped silently.
func (r RawRecord) Identifier() string {
	for _, key := range []string{"id", "source_id", "full_name", "objectID"} {
		if v, ok := r[key]; ok {
			if s := fmt.Sprintf("%v", v); s != "" {
				return s
			}
		}
	}
	return "<unidentified>"
}

// ItemKey is the natural key uniquely identifying an item's origin.
type ItemKey struct {
	SourceType SourceType
	SourceID   string
}

func (k ItemKey) String() string {
	return string(k.SourceType) + "/" + k.SourceID
}

// Item is the canonical unit flowing through the pipeline and into storage.
type Item struct {
	SourceType          SourceType
	SourceID            string
	Title               string
	Summary             string
	URL                 string
	PublishedAt         time.Time
	PublishedAtInferred bool
	IngestedAt          time.Time
	Engagement          float64
	SignalClass         SignalClass
	Score               float64
	MatchedKeywords     []string
}

// Key returns the natural key (source_type, source_id).
func (i Item) Key() ItemKey {
	return ItemKey{SourceType: i.SourceType, SourceID: i.SourceID}
}

// ItemFilter narrows Query results. Nil/zero fields match everything.
type ItemFilter struct {
	Classes         []SignalClass
	SourceTypes     []SourceType
	PublishedAfter  time.Time
	PublishedBefore time.Time
	Limit           int
	Offset          int
}
