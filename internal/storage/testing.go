package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// fixtureSchema mirrors the layout produced by the ingestion pipeline
const fixtureSchema = `
CREATE TABLE IF NOT EXISTS tweets (
	id TEXT PRIMARY KEY,
	text TEXT,
	summary TEXT,
	insights TEXT,
	vision_captions TEXT,
	tags TEXT,
	llm_tags TEXT,
	semantic_tags TEXT,
	author TEXT,
	handle TEXT,
	year INTEGER,
	month INTEGER,
	date TEXT,
	createdAt TEXT,
	url TEXT,
	replyCount INTEGER,
	quoteCount INTEGER,
	retweetCount INTEGER,
	likeCount INTEGER,
	views REAL,
	bookmarkCount INTEGER,
	allMediaURL TEXT,
	image_tags TEXT
);

CREATE INDEX IF NOT EXISTS idx_author ON tweets(author);
CREATE INDEX IF NOT EXISTS idx_handle ON tweets(handle);
CREATE INDEX IF NOT EXISTS idx_date ON tweets(date);
`

// WriteFixture creates (or extends) a database at path containing posts.
// It is meant for tests and local demos; the service itself never writes.
func WriteFixture(path string, posts ...*Post) error {
	db, err := sql.Open(DriverName, fileURI(path, "mode=rwc"))
	if err != nil {
		return fmt.Errorf("open fixture database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(fixtureSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	query := `
	INSERT INTO tweets (
		id, text, summary, insights, vision_captions, tags, llm_tags, semantic_tags,
		author, handle, year, month, date, createdAt, url,
		replyCount, quoteCount, retweetCount, likeCount, views, bookmarkCount,
		allMediaURL, image_tags
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		text = excluded.text,
		summary = excluded.summary,
		insights = excluded.insights,
		vision_captions = excluded.vision_captions,
		tags = excluded.tags,
		llm_tags = excluded.llm_tags,
		semantic_tags = excluded.semantic_tags,
		author = excluded.author,
		handle = excluded.handle,
		year = excluded.year,
		month = excluded.month,
		date = excluded.date,
		createdAt = excluded.createdAt,
		url = excluded.url,
		replyCount = excluded.replyCount,
		quoteCount = excluded.quoteCount,
		retweetCount = excluded.retweetCount,
		likeCount = excluded.likeCount,
		views = excluded.views,
		bookmarkCount = excluded.bookmarkCount,
		allMediaURL = excluded.allMediaURL,
		image_tags = excluded.image_tags
	`

	for _, p := range posts {
		_, err := db.Exec(query,
			p.ID, p.Text, p.Summary, jsonText(p.Insights), jsonText(p.VisionCaptions),
			jsonText(p.Tags), jsonText(p.LLMTags), jsonText(p.SemanticTags),
			p.Author, p.Handle, p.Year, p.Month, p.Date, p.CreatedAt, p.URL,
			p.ReplyCount, p.QuoteCount, p.RetweetCount, p.LikeCount, p.Views, p.BookmarkCount,
			jsonText(p.MediaURLs), jsonText(p.ImageTags),
		)
		if err != nil {
			return fmt.Errorf("insert post %s: %w", p.ID, err)
		}
	}

	return nil
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
