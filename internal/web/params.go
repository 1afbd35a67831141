package web

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/renderinc/tweet-explorer/internal/filter"
	"github.com/renderinc/tweet-explorer/internal/search"
)

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &search.ValidationError{Field: key, Reason: "must be an integer"}
	}
	return v, nil
}

func queryInt64(c *fiber.Ctx, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &search.ValidationError{Field: key, Reason: "must be an integer"}
	}
	return v, nil
}

func queryFloat(c *fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &search.ValidationError{Field: key, Reason: "must be a number"}
	}
	return v, nil
}

// parseCriteria reads the filter parameters shared by /search and /query.
// The author filter is only offered on /search.
func parseCriteria(c *fiber.Ctx, withAuthor bool) (filter.Criteria, error) {
	var (
		crit filter.Criteria
		err  error
	)

	if crit.Year, err = queryInt(c, "year", 0); err != nil {
		return crit, err
	}
	if crit.Month, err = queryInt(c, "month", 0); err != nil {
		return crit, err
	}
	crit.StartDate = c.Query("start_date")
	crit.EndDate = c.Query("end_date")

	crit.Tags = filter.ParseList(c.Query("tag"))
	crit.ImageTags = filter.ParseList(c.Query("image_tag"))
	crit.ImageSubtags = filter.ParseList(c.Query("image_subtag"))
	crit.Handles = filter.ParseList(c.Query("handle"))
	if withAuthor {
		crit.Authors = filter.ParseList(c.Query("author"))
	}

	thresholds := []struct {
		key string
		dst *int64
	}{
		{"min_likes", &crit.MinLikes},
		{"min_views", &crit.MinViews},
		{"min_retweets", &crit.MinRetweets},
		{"min_quotes", &crit.MinQuotes},
		{"min_replies", &crit.MinReplies},
		{"min_bookmarks", &crit.MinBookmarks},
	}
	for _, th := range thresholds {
		if *th.dst, err = queryInt64(c, th.key); err != nil {
			return crit, err
		}
	}

	return crit, nil
}

func parseSearchRequest(c *fiber.Ctx) (search.SearchRequest, error) {
	req := search.NewSearchRequest()
	var err error

	req.Text = c.Query("text")
	if req.TopK, err = queryInt(c, "top_k", search.DefaultTopK); err != nil {
		return req, err
	}
	if req.Page, err = queryInt(c, "page", search.DefaultPage); err != nil {
		return req, err
	}
	if req.PageSize, err = queryInt(c, "page_size", search.DefaultPageSize); err != nil {
		return req, err
	}
	if mode := c.Query("mode"); mode != "" {
		req.Mode = search.Mode(mode)
	}
	if req.Weight, err = queryFloat(c, "weight", search.DefaultWeight); err != nil {
		return req, err
	}

	req.Filters, err = parseCriteria(c, true)
	return req, err
}

func parseQueryRequest(c *fiber.Ctx) (search.QueryRequest, error) {
	req := search.NewQueryRequest(c.Query("text"))
	var err error

	if req.TopK, err = queryInt(c, "top_k", search.DefaultTopK); err != nil {
		return req, err
	}

	req.Filters, err = parseCriteria(c, false)
	return req, err
}
