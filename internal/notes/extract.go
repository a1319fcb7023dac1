package notes

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// RawItem is a record decoded from the platform's JSON, it has no fixed schema.
type RawItem = map[string]any

type Field string

const (
	FieldID             Field = "id"
	FieldTitle          Field = "title"
	FieldDescription    Field = "description"
	FieldKind           Field = "kind"
	FieldCover          Field = "cover"
	FieldNickname       Field = "nickname"
	FieldUserID         Field = "userId"
	FieldLikedCount     Field = "likedCount"
	FieldCommentCount   Field = "commentCount"
	FieldCollectedCount Field = "collectedCount"
	FieldAccessToken    Field = "accessToken"
	FieldTimestamp      Field = "timestamp"
)

const (
	defaultID       = "unknown"
	defaultTitle    = "未命名笔记"
	defaultNickname = "小红书用户"
	defaultUserID   = "unknown"
	defaultCount    = "0"
)

// DefaultCoverURL is used for notes that carry no usable image.
var DefaultCoverURL = PlaceholderCoverURL("小红书", 0)

// PlaceholderCoverURL returns a neutral placeholder image labelled with text.
func PlaceholderCoverURL(text string, n int) string {
	label := url.QueryEscape(text)
	if n > 0 {
		label = fmt.Sprintf("%s+%d", label, n)
	}
	return fmt.Sprintf("https://via.placeholder.com/300x400/6366f1/ffffff?text=%s", label)
}

// accessor returns the value it found and whether it was non-empty.
type accessor func(item RawItem) (string, bool)

// lookup walks a path of map keys (string) and slice indexes (int).
func lookup(item RawItem, path ...any) (any, bool) {
	var current any = item
	for _, segment := range path {
		switch key := segment.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = m[key]
			if !ok {
				return nil, false
			}
		case int:
			list, ok := current.([]any)
			if !ok || key < 0 || key >= len(list) {
				return nil, false
			}
			current = list[key]
		default:
			return nil, false
		}
	}
	return current, current != nil
}

// scalarString renders strings and JSON numbers, other shapes are not scalars.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	}
	return "", false
}

func path(segments ...any) accessor {
	return func(item RawItem) (string, bool) {
		value, ok := lookup(item, segments...)
		if !ok {
			return "", false
		}
		return scalarString(value)
	}
}

var imageURLKeys = [][]any{
	{"url_default"},
	{"url"},
	{"url_pre"},
	{"info_list", 0, "url"},
}

// imageAt reads an image that may either be a plain url or an object with several url variants.
func imageAt(segments ...any) accessor {
	return func(item RawItem) (string, bool) {
		value, ok := lookup(item, segments...)
		if !ok {
			return "", false
		}
		if s, ok := value.(string); ok {
			s = strings.TrimSpace(s)
			return s, s != ""
		}
		image, ok := value.(map[string]any)
		if !ok {
			return "", false
		}
		for _, key := range imageURLKeys {
			if s, ok := path(key...)(image); ok {
				return s, true
			}
		}
		return "", false
	}
}

func countAt(name string) []accessor {
	return []accessor{
		path("interact_info", name),
		path("note_card", "interact_info", name),
		path(name),
	}
}

var accessors = map[Field][]accessor{
	FieldID: {
		path("id"),
		path("note_id"),
		path("note_card", "note_id"),
		path("note_card", "id"),
	},
	FieldTitle: {
		path("title"),
		path("display_title"),
		path("note_card", "display_title"),
		path("note_card", "title"),
	},
	FieldDescription: {
		path("desc"),
		path("description"),
		path("note_card", "desc"),
		path("note_card", "description"),
	},
	FieldKind: {
		path("type"),
		path("note_card", "type"),
	},
	FieldCover: {
		imageAt("note_card", "cover"),
		imageAt("note_card", "image_list", 0),
		imageAt("cover"),
		imageAt("image_list", 0),
	},
	FieldNickname: {
		path("user", "nickname"),
		path("user", "nick_name"),
		path("note_card", "user", "nickname"),
		path("note_card", "user", "nick_name"),
	},
	FieldUserID: {
		path("user", "user_id"),
		path("user", "userId"),
		path("note_card", "user", "user_id"),
		path("note_card", "user", "userId"),
	},
	FieldLikedCount:     countAt("liked_count"),
	FieldCommentCount:   countAt("comment_count"),
	FieldCollectedCount: countAt("collected_count"),
	FieldAccessToken: {
		path("xsec_token"),
		path("note_card", "xsec_token"),
	},
	FieldTimestamp: {
		path("time"),
		path("note_card", "time"),
		path("last_update_time"),
		path("note_card", "last_update_time"),
	},
}

func first(item RawItem, field Field) (string, bool) {
	for _, get := range accessors[field] {
		if value, ok := get(item); ok {
			return value, true
		}
	}
	return "", false
}

var textPolicy = bluemonday.StrictPolicy()

// cleanText strips markup the platform sometimes embeds in titles and descriptions.
func cleanText(text string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(text)))
}

func resolveKind(item RawItem) Kind {
	value, _ := first(item, FieldKind)
	if strings.EqualFold(value, string(KindVideo)) {
		return KindVideo
	}
	return KindNormal
}

func resolveTitle(item RawItem) string {
	if value, ok := first(item, FieldTitle); ok {
		if cleaned := cleanText(value); cleaned != "" {
			return cleaned
		}
	}
	return defaultTitle
}

func defaultDescription(title string, kind Kind) string {
	label := "图文"
	if kind == KindVideo {
		label = "视频"
	}
	return fmt.Sprintf("这是一篇关于「%s」的%s笔记", title, label)
}

// Resolve returns the first non-empty candidate for field, or the field's default. Only
// accessToken and timestamp may resolve to an empty string.
func Resolve(item RawItem, field Field) string {
	switch field {
	case FieldTitle:
		return resolveTitle(item)
	case FieldKind:
		return string(resolveKind(item))
	case FieldDescription:
		if value, ok := first(item, FieldDescription); ok {
			if cleaned := cleanText(value); cleaned != "" {
				return cleaned
			}
		}
		return defaultDescription(resolveTitle(item), resolveKind(item))
	}

	value, ok := first(item, field)
	if ok {
		return value
	}
	switch field {
	case FieldID:
		return defaultID
	case FieldCover:
		return DefaultCoverURL
	case FieldNickname:
		return defaultNickname
	case FieldUserID:
		return defaultUserID
	case FieldLikedCount, FieldCommentCount, FieldCollectedCount:
		return defaultCount
	}
	return ""
}

// Timestamp returns the note's publish or update time in unix milliseconds.
func Timestamp(item RawItem) (int64, bool) {
	value, ok := first(item, FieldTimestamp)
	if !ok {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return int64(parsed), true
}

// HasID reports whether any id candidate is present.
func HasID(item RawItem) bool {
	_, ok := first(item, FieldID)
	return ok
}

// Extract builds a CanonicalNote from a raw record.
func Extract(item RawItem) CanonicalNote {
	id := Resolve(item, FieldID)
	return CanonicalNote{
		ID:          id,
		Title:       Resolve(item, FieldTitle),
		Description: Resolve(item, FieldDescription),
		Kind:        resolveKind(item),
		Author: Author{
			Nickname: Resolve(item, FieldNickname),
			UserID:   Resolve(item, FieldUserID),
		},
		Engagement: Engagement{
			LikedCount:     Resolve(item, FieldLikedCount),
			CommentCount:   Resolve(item, FieldCommentCount),
			CollectedCount: Resolve(item, FieldCollectedCount),
		},
		CoverURL:  Resolve(item, FieldCover),
		SourceURL: SourceURL(id),
	}
}
