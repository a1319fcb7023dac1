// Package notes turns the platform's loosely structured note records into canonical notes and
// produces placeholder notes when no real data can be fetched.
package notes

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is wrapped by every error caused by a malformed query.
var ErrValidation = errors.New("validation error")

type Kind string

const (
	KindNormal Kind = "normal"
	KindVideo  Kind = "video"
)

type SortMode string

const (
	SortGeneral SortMode = "general"
	SortTime    SortMode = "time"
	SortLikes   SortMode = "likes"
)

// ParseSortMode accepts the canonical names as well as the platform's own spellings, anything
// else is a validation error.
func ParseSortMode(text string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "general":
		return SortGeneral, nil
	case "time", "time_descending":
		return SortTime, nil
	case "likes", "like", "popularity_descending":
		return SortLikes, nil
	}
	return "", fmt.Errorf("%w: unsupported sort mode %q", ErrValidation, text)
}

// WireValue is the value the platform's search endpoint expects for `sort`.
func (s SortMode) WireValue() string {
	switch s {
	case SortTime:
		return "time_descending"
	case SortLikes:
		return "popularity_descending"
	default:
		return "general"
	}
}

// MaxPageSize is the largest page the platform serves and the most notes a query may ask for.
const MaxPageSize = 100

type SearchQuery struct {
	Keyword  string
	Page     int
	PageSize int
	SortMode SortMode
}

func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Keyword) == "" {
		return fmt.Errorf("%w: keyword must not be empty", ErrValidation)
	}
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrValidation, q.Page)
	}
	if q.PageSize < 1 {
		return fmt.Errorf("%w: page size must be >= 1, got %d", ErrValidation, q.PageSize)
	}
	if q.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page size must be <= %d, got %d", ErrValidation, MaxPageSize, q.PageSize)
	}
	switch q.SortMode {
	case SortGeneral, SortTime, SortLikes:
	default:
		return fmt.Errorf("%w: unsupported sort mode %q", ErrValidation, q.SortMode)
	}
	return nil
}

type Author struct {
	Nickname string `json:"nickname"`
	UserID   string `json:"userId"`
}

// Engagement counts are kept as the decimal strings the platform sent ("1.2万" stays "1.2万"),
// use ParseCount to compare them.
type Engagement struct {
	LikedCount     string `json:"likedCount"`
	CommentCount   string `json:"commentCount"`
	CollectedCount string `json:"collectedCount"`
}

// CanonicalNote is never partially filled, every field missing upstream is replaced by its
// default.
type CanonicalNote struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Kind        Kind       `json:"kind"`
	Author      Author     `json:"author"`
	Engagement  Engagement `json:"engagement"`
	CoverURL    string     `json:"coverUrl"`
	SourceURL   string     `json:"sourceUrl"`
}

const exploreBaseURL = "https://www.xiaohongshu.com/explore"

// SourceURL is the public web page of a note.
func SourceURL(id string) string {
	if id == "" || id == defaultID {
		return exploreBaseURL
	}
	return fmt.Sprintf("%s/%s", exploreBaseURL, id)
}
