package notes

import (
	"sort"
	"strings"
)

// Entry is a normalized note together with the per-item data the platform needs for follow-up
// requests, which is not part of the canonical note.
type Entry struct {
	Note        CanonicalNote
	AccessToken string
	// Timestamp is in unix milliseconds, HasTimestamp is false when the record carried none.
	Timestamp    int64
	HasTimestamp bool
}

// IsNote reports whether a raw record is a content note, search results are interleaved with
// query suggestions, ads and user cards.
func IsNote(item RawItem) bool {
	if item == nil {
		return false
	}
	if modelType, ok := item["model_type"]; ok {
		s, _ := modelType.(string)
		return s == "note"
	}
	if _, ok := item["note_card"].(map[string]any); ok {
		return true
	}
	kind, _ := first(item, FieldKind)
	switch strings.ToLower(kind) {
	case string(KindNormal), string(KindVideo):
		return true
	}
	return false
}

// NormalizeEntries filters, extracts, re-sorts and truncates raw search items.
func NormalizeEntries(items []RawItem, query SearchQuery) []Entry {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if !IsNote(item) || !HasID(item) {
			continue
		}
		ts, hasTs := Timestamp(item)
		entries = append(entries, Entry{
			Note:         Extract(item),
			AccessToken:  Resolve(item, FieldAccessToken),
			Timestamp:    ts,
			HasTimestamp: hasTs,
		})
	}

	switch query.SortMode {
	case SortLikes:
		sort.SliceStable(entries, func(i, j int) bool {
			return ParseCount(entries[i].Note.Engagement.LikedCount) >
				ParseCount(entries[j].Note.Engagement.LikedCount)
		})
	case SortTime:
		sortByTime(entries)
	}

	if query.PageSize > 0 && len(entries) > query.PageSize {
		entries = entries[:query.PageSize]
	}
	return entries
}

// sortByTime orders newest first. Without a single timestamp the upstream order is kept as is,
// entries without one go after those that have one.
func sortByTime(entries []Entry) {
	found := false
	for _, e := range entries {
		if e.HasTimestamp {
			found = true
			break
		}
	}
	if !found {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.HasTimestamp != b.HasTimestamp {
			return a.HasTimestamp
		}
		return a.Timestamp > b.Timestamp
	})
}

// Normalize converts raw search items into canonical notes for query.
func Normalize(items []RawItem, query SearchQuery) []CanonicalNote {
	entries := NormalizeEntries(items, query)
	out := make([]CanonicalNote, len(entries))
	for i, e := range entries {
		out[i] = e.Note
	}
	return out
}
