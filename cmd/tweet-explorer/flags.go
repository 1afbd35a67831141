package main

import (
	"github.com/urfave/cli/v2"

	"github.com/renderinc/tweet-explorer/internal/filter"
	"github.com/renderinc/tweet-explorer/internal/search"
)

var thresholdFlags = []string{
	"min-likes",
	"min-views",
	"min-retweets",
	"min-quotes",
	"min-replies",
	"min-bookmarks",
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Retrieval mode when text is given (semantic, keyword, hybrid)",
			Value: string(search.ModeSemantic),
		},
		&cli.Float64Flag{
			Name:  "weight",
			Usage: "Semantic weight in hybrid mode (0.0-1.0)",
			Value: search.DefaultWeight,
		},
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Candidates retrieved before filtering",
			Value: search.DefaultTopK,
		},
		&cli.IntFlag{
			Name:  "page",
			Usage: "Page number, starting at 1",
			Value: search.DefaultPage,
		},
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "Matches per page",
			Value: search.DefaultPageSize,
		},
	}
}

// filterFlags mirrors the HTTP filter parameters. List flags take
// comma-separated values.
func filterFlags(withAuthor bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.IntFlag{Name: "year", Usage: "Only posts from this year"},
		&cli.IntFlag{Name: "month", Usage: "Only posts from this month (1-12)"},
		&cli.StringFlag{Name: "start-date", Usage: "Earliest date, yyyy-mm-dd inclusive"},
		&cli.StringFlag{Name: "end-date", Usage: "Latest date, yyyy-mm-dd inclusive"},
		&cli.StringFlag{Name: "tag", Usage: "Any of these tags"},
		&cli.StringFlag{Name: "image-tag", Usage: "Any of these primary image tags"},
		&cli.StringFlag{Name: "image-subtag", Usage: "Any of these image subtags"},
		&cli.StringFlag{Name: "handle", Usage: "Any of these handles"},
	}
	if withAuthor {
		flags = append(flags, &cli.StringFlag{Name: "author", Usage: "Any of these author names"})
	}
	for _, name := range thresholdFlags {
		flags = append(flags, &cli.Int64Flag{Name: name, Usage: "Engagement floor (inclusive)"})
	}
	return flags
}

func criteriaFromFlags(c *cli.Context, withAuthor bool) filter.Criteria {
	crit := filter.Criteria{
		Year:         c.Int("year"),
		Month:        c.Int("month"),
		StartDate:    c.String("start-date"),
		EndDate:      c.String("end-date"),
		Tags:         filter.ParseList(c.String("tag")),
		ImageTags:    filter.ParseList(c.String("image-tag")),
		ImageSubtags: filter.ParseList(c.String("image-subtag")),
		Handles:      filter.ParseList(c.String("handle")),
		MinLikes:     c.Int64("min-likes"),
		MinViews:     c.Int64("min-views"),
		MinRetweets:  c.Int64("min-retweets"),
		MinQuotes:    c.Int64("min-quotes"),
		MinReplies:   c.Int64("min-replies"),
		MinBookmarks: c.Int64("min-bookmarks"),
	}
	if withAuthor {
		crit.Authors = filter.ParseList(c.String("author"))
	}
	return crit
}
