package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

// Facet names a filterable attribute whose distinct values can be listed
type Facet string

const (
	FacetTags         Facet = "tags"
	FacetAuthors      Facet = "authors"
	FacetHandles      Facet = "handles"
	FacetImageTags    Facet = "image_tags"
	FacetImageSubtags Facet = "image_subtags"
)

// AllFacets lists every facet in response order
var AllFacets = []Facet{FacetTags, FacetAuthors, FacetHandles, FacetImageTags, FacetImageSubtags}

// FilterOptions holds the sorted distinct values used to populate filter pickers
type FilterOptions struct {
	Tags         []string `json:"tags"`
	Authors      []string `json:"authors"`
	Handles      []string `json:"handles"`
	ImageTags    []string `json:"image_tags"`
	ImageSubtags []string `json:"image_subtags"`
}

// DistinctValues scans the whole table once and returns, for each requested
// facet, the deduplicated non-empty values sorted ascending.
func (d *DB) DistinctValues(ctx context.Context, facets ...Facet) (map[Facet][]string, error) {
	if len(facets) == 0 {
		facets = AllFacets
	}

	sets := make(map[Facet]map[string]struct{}, len(facets))
	for _, f := range facets {
		switch f {
		case FacetTags, FacetAuthors, FacetHandles, FacetImageTags, FacetImageSubtags:
			sets[f] = make(map[string]struct{})
		default:
			return nil, fmt.Errorf("unknown facet: %s", f)
		}
	}

	rows, err := d.db.QueryContext(ctx, "SELECT tags, author, handle, image_tags FROM "+TableName)
	if err != nil {
		return nil, fmt.Errorf("query facets: %w", err)
	}
	defer rows.Close()

	add := func(f Facet, values ...string) {
		set, ok := sets[f]
		if !ok {
			return
		}
		for _, v := range values {
			if v != "" {
				set[v] = struct{}{}
			}
		}
	}

	for rows.Next() {
		var tags, author, handle, imageTags sql.NullString
		if err := rows.Scan(&tags, &author, &handle, &imageTags); err != nil {
			return nil, err
		}

		add(FacetTags, DecodeStringList(tags.String)...)
		add(FacetAuthors, author.String)
		add(FacetHandles, handle.String)

		for _, it := range DecodeImageTags(imageTags.String) {
			add(FacetImageTags, it.PrimaryTag)
			add(FacetImageSubtags, it.Subtags...)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make(map[Facet][]string, len(sets))
	for f, set := range sets {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		slices.Sort(values)
		result[f] = values
	}

	return result, nil
}

// FilterOptions returns the distinct values of every facet
func (d *DB) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	values, err := d.DistinctValues(ctx, AllFacets...)
	if err != nil {
		return nil, err
	}

	return &FilterOptions{
		Tags:         values[FacetTags],
		Authors:      values[FacetAuthors],
		Handles:      values[FacetHandles],
		ImageTags:    values[FacetImageTags],
		ImageSubtags: values[FacetImageSubtags],
	}, nil
}
