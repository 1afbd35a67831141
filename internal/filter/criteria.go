// Package filter narrows a candidate sequence of posts by metadata criteria.
//
// Active criteria are combined with AND. Within one list-valued criterion
// (tags, image tags, image subtags, authors, handles) a post matches if any
// of its values is among the accepted values.
package filter

import (
	"strings"

	"github.com/renderinc/tweet-explorer/internal/storage"
)

// Criteria holds every recognised filter option. Zero values mean "unset".
type Criteria struct {
	// Year and Month match the post's decomposed date exactly
	Year  int
	Month int

	// StartDate and EndDate bound the post's ISO date inclusively using a
	// lexical comparison. Posts without a date are not constrained.
	StartDate string
	EndDate   string

	Tags         []string
	ImageTags    []string
	ImageSubtags []string
	Authors      []string
	Handles      []string

	// Inclusive lower bounds on engagement counters
	MinLikes     int64
	MinViews     int64
	MinRetweets  int64
	MinQuotes    int64
	MinReplies   int64
	MinBookmarks int64
}

// ParseList splits a comma-separated parameter into its values.
// Surrounding whitespace is trimmed and empty items are dropped.
func ParseList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

// IsZero reports whether no criterion is set
func (c Criteria) IsZero() bool {
	return c.Year == 0 && c.Month == 0 &&
		c.StartDate == "" && c.EndDate == "" &&
		len(c.Tags) == 0 && len(c.ImageTags) == 0 && len(c.ImageSubtags) == 0 &&
		len(c.Authors) == 0 && len(c.Handles) == 0 &&
		c.MinLikes == 0 && c.MinViews == 0 && c.MinRetweets == 0 &&
		c.MinQuotes == 0 && c.MinReplies == 0 && c.MinBookmarks == 0
}

// Match reports whether p satisfies every active criterion
func (c Criteria) Match(p *storage.Post) bool {
	if p == nil {
		return false
	}

	if c.Year != 0 && p.Year != c.Year {
		return false
	}
	if c.Month != 0 && p.Month != c.Month {
		return false
	}
	if c.StartDate != "" && p.Date != "" && p.Date < c.StartDate {
		return false
	}
	if c.EndDate != "" && p.Date != "" && p.Date > c.EndDate {
		return false
	}

	if len(c.Tags) > 0 && !intersects(p.Tags, c.Tags) {
		return false
	}
	if len(c.ImageTags) > 0 && !intersects(p.PrimaryImageTags(), c.ImageTags) {
		return false
	}
	if len(c.ImageSubtags) > 0 && !intersects(p.ImageSubtags(), c.ImageSubtags) {
		return false
	}
	if len(c.Authors) > 0 && !contains(c.Authors, p.Author) {
		return false
	}
	if len(c.Handles) > 0 && !contains(c.Handles, p.Handle) {
		return false
	}

	return p.LikeCount >= c.MinLikes &&
		p.Views >= c.MinViews &&
		p.RetweetCount >= c.MinRetweets &&
		p.QuoteCount >= c.MinQuotes &&
		p.ReplyCount >= c.MinReplies &&
		p.BookmarkCount >= c.MinBookmarks
}

func intersects(have, want []string) bool {
	for _, w := range want {
		if contains(have, w) {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
