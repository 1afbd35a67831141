package filter

import "github.com/renderinc/tweet-explorer/internal/storage"

// Apply returns the items whose post satisfies c, preserving input order.
// With no active criteria the input is returned unchanged.
func Apply[T any](items []T, c Criteria, post func(T) *storage.Post) []T {
	if c.IsZero() {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if c.Match(post(item)) {
			out = append(out, item)
		}
	}
	return out
}

// Posts filters a plain post slice
func Posts(posts []*storage.Post, c Criteria) []*storage.Post {
	return Apply(posts, c, func(p *storage.Post) *storage.Post { return p })
}
