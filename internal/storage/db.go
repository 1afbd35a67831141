package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// TableName is the table holding one row per tweet
const TableName = "tweets"

// maxIDsPerQuery bounds the number of placeholders in a single IN clause
const maxIDsPerQuery = 500

const postColumns = `id, text, summary, insights, vision_captions, tags, llm_tags, semantic_tags,
	author, handle, year, month, date, createdAt, url,
	replyCount, quoteCount, retweetCount, likeCount, views, bookmarkCount,
	allMediaURL, image_tags`

// DB wraps read-only SQLite access to the tweet metadata table
type DB struct {
	db *sql.DB
}

// Open opens an existing SQLite database read-only
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat database: %w", err)
	}

	db, err := sql.Open(DriverName, readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	storage := &DB{db: db}

	// Fail fast if the expected table is missing
	if _, err := storage.Count(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("check %s table: %w", TableName, err)
	}

	return storage, nil
}

// uriPathEscaper escapes the characters SQLite gives meaning to in a file: URI
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// fileURI builds a SQLite file: URI for path with optional query parameters
func fileURI(path, query string) string {
	uri := "file:" + uriPathEscaper.Replace(path)
	if query != "" {
		uri += "?" + query
	}
	return uri
}

func readOnlyDSN(path string) string {
	return fileURI(path, "mode=ro")
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// Get retrieves a post by ID. Returns (nil, nil) when no row exists.
func (d *DB) Get(ctx context.Context, id string) (*Post, error) {
	query := "SELECT " + postColumns + " FROM " + TableName + " WHERE id = ?"

	post, err := scanPost(d.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return post, nil
}

// GetMany retrieves the posts for ids, keyed by ID.
// IDs without a stored row are absent from the result.
func (d *DB) GetMany(ctx context.Context, ids []string) (map[string]*Post, error) {
	posts := make(map[string]*Post, len(ids))

	for start := 0; start < len(ids); start += maxIDsPerQuery {
		end := min(start+maxIDsPerQuery, len(ids))
		chunk := ids[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		query := "SELECT " + postColumns + " FROM " + TableName + " WHERE id IN (" + placeholders + ")"

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := d.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query posts: %w", err)
		}

		for rows.Next() {
			post, err := scanPost(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			posts[post.ID] = post
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}

	return posts, nil
}

// List retrieves all posts in storage order
func (d *DB) List(ctx context.Context) ([]*Post, error) {
	query := "SELECT " + postColumns + " FROM " + TableName + " ORDER BY rowid"

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// Count returns the total number of posts
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+TableName).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPost hydrates a Post from a row selected with postColumns.
// Loosely typed columns are scanned as any and normalized so that a
// corrupt value degrades to a default instead of failing the query.
func scanPost(row rowScanner) (*Post, error) {
	var (
		id                                                 string
		text, summary, insights, captions, tags            sql.NullString
		llmTags, semanticTags, author, handle, url         sql.NullString
		media, imageTags                                   sql.NullString
		year, month, date, createdAt                       any
		replies, quotes, retweets, likes, views, bookmarks any
	)

	err := row.Scan(
		&id, &text, &summary, &insights, &captions, &tags, &llmTags, &semanticTags,
		&author, &handle, &year, &month, &date, &createdAt, &url,
		&replies, &quotes, &retweets, &likes, &views, &bookmarks,
		&media, &imageTags,
	)
	if err != nil {
		return nil, err
	}

	return &Post{
		ID:             id,
		Text:           text.String,
		Summary:        summary.String,
		Insights:       DecodeStringList(insights.String),
		VisionCaptions: DecodeStringList(captions.String),
		Tags:           DecodeStringList(tags.String),
		LLMTags:        DecodeStringList(llmTags.String),
		SemanticTags:   DecodeStringList(semanticTags.String),
		Author:         author.String,
		Handle:         handle.String,
		Year:           int(countValue(year)),
		Month:          int(countValue(month)),
		Date:           textValue(date, time.DateOnly),
		CreatedAt:      textValue(createdAt, time.RFC3339),
		URL:            url.String,
		ReplyCount:     countValue(replies),
		QuoteCount:     countValue(quotes),
		RetweetCount:   countValue(retweets),
		LikeCount:      countValue(likes),
		Views:          countValue(views),
		BookmarkCount:  countValue(bookmarks),
		MediaURLs:      DecodeStringList(media.String),
		ImageTags:      DecodeImageTags(imageTags.String),
	}, nil
}
