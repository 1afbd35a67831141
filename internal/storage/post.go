package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Post represents one tweet row in the metadata store
type Post struct {
	ID             string     `json:"id"`
	Text           string     `json:"text"`
	Summary        string     `json:"summary"`
	Insights       []string   `json:"insights"`
	VisionCaptions []string   `json:"vision_captions"`
	Tags           []string   `json:"tags"`
	LLMTags        []string   `json:"llm_tags"`
	SemanticTags   []string   `json:"semantic_tags"`
	Author         string     `json:"author"`
	Handle         string     `json:"handle"`
	Year           int        `json:"year"`
	Month          int        `json:"month"`
	Date           string     `json:"date"`      // ISO yyyy-mm-dd, sorts lexically
	CreatedAt      string     `json:"createdAt"` // full datetime as stored
	URL            string     `json:"url"`
	ReplyCount     int64      `json:"replyCount"`
	QuoteCount     int64      `json:"quoteCount"`
	RetweetCount   int64      `json:"retweetCount"`
	LikeCount      int64      `json:"likeCount"`
	Views          int64      `json:"views"`
	BookmarkCount  int64      `json:"bookmarkCount"`
	MediaURLs      []string   `json:"allMediaURL"`
	ImageTags      []ImageTag `json:"image_tags"`
}

// ImageTag is one entry of the nested vision tagging structure
type ImageTag struct {
	PrimaryTag string   `json:"primary_tag"`
	Subtags    []string `json:"subtags"`
}

// PrimaryImageTags returns the primary_tag of every image tag entry, in order
func (p *Post) PrimaryImageTags() []string {
	tags := make([]string, 0, len(p.ImageTags))
	for _, it := range p.ImageTags {
		if it.PrimaryTag != "" {
			tags = append(tags, it.PrimaryTag)
		}
	}
	return tags
}

// ImageSubtags returns the flattened subtags of every image tag entry
func (p *Post) ImageSubtags() []string {
	var subtags []string
	for _, it := range p.ImageTags {
		subtags = append(subtags, it.Subtags...)
	}
	return subtags
}

// DecodeStringList parses a JSON-encoded list column.
// Absent, "NaN" or malformed values yield an empty list. Non-string
// scalar elements are kept in their textual form.
func DecodeStringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "NaN" || raw == "null" {
		return []string{}
	}

	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}

	list := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			list = append(list, v)
		case float64, bool:
			list = append(list, fmt.Sprint(v))
		}
	}
	return list
}

// DecodeImageTags parses the nested image_tags column.
// Entries that are not objects are dropped; a malformed column yields an empty list.
func DecodeImageTags(raw string) []ImageTag {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "NaN" || raw == "null" {
		return []ImageTag{}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return []ImageTag{}
	}

	tags := make([]ImageTag, 0, len(entries))
	for _, entry := range entries {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(entry, &obj); err != nil {
			continue
		}

		var it ImageTag
		if v, ok := obj["primary_tag"]; ok {
			_ = json.Unmarshal(v, &it.PrimaryTag)
		}
		if v, ok := obj["subtags"]; ok {
			it.Subtags = DecodeStringList(string(v))
		}
		if it.Subtags == nil {
			it.Subtags = []string{}
		}
		tags = append(tags, it)
	}
	return tags
}

// countValue normalizes a scanned numeric column to a non-negative count.
// NULL, NaN, infinities and unparseable text become 0.
func countValue(v any) int64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case int64:
		f = float64(n)
	case float64:
		f = n
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int64(f)
}

// textValue normalizes a scanned column to a string.
// Timestamps parsed by the driver are formatted with layout.
func textValue(v any, layout string) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(layout)
	case float64:
		if math.IsNaN(s) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
