package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sgx-labs/folio/internal/posts"
)

// PostRow is one exported post.
type PostRow struct {
	Slug          string   `json:"slug"`
	Path          string   `json:"path"`
	Title         string   `json:"title"`
	Date          string   `json:"date,omitempty"` // YYYY-MM-DD, empty when undated
	FormattedDate string   `json:"formatted_date"`
	Year          string   `json:"year"`
	Category      string   `json:"category"`
	CategorySlug  string   `json:"category_slug"`
	Published     bool     `json:"published"`
	Tags          []string `json:"tags"`
}

// TagCount is the number of published posts carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ReplaceIndex swaps the stored snapshot for records in one transaction.
// A failed write leaves the previous snapshot intact.
func (db *DB) ReplaceIndex(records []posts.Record, root string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM post_tags`, `DELETE FROM posts`} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	postStmt, err := tx.Prepare(`INSERT INTO posts (slug, path, title, date, formatted_date, year,
		category, category_slug, published) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare post insert: %w", err)
	}
	defer postStmt.Close()

	tagStmt, err := tx.Prepare(`INSERT INTO post_tags (slug, position, tag) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare tag insert: %w", err)
	}
	defer tagStmt.Close()

	for _, r := range records {
		var date sql.NullString
		if r.DateValid {
			date = sql.NullString{String: r.ParsedDate.Format("2006-01-02"), Valid: true}
		}
		if _, err := postStmt.Exec(r.Slug, r.Path, r.Title(), date, r.FormattedDate, r.Year(),
			r.Category(), r.CategoryKey(), r.Published()); err != nil {
			return fmt.Errorf("insert post %s: %w", r.Slug, err)
		}
		for i, tag := range r.Meta.Tags {
			if _, err := tagStmt.Exec(r.Slug, i, tag); err != nil {
				return fmt.Errorf("insert tag for %s: %w", r.Slug, err)
			}
		}
	}

	meta := map[string]string{
		"root":     root,
		"built_at": time.Now().UTC().Format(time.RFC3339),
		"posts":    fmt.Sprint(len(records)),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO snapshot_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return fmt.Errorf("write meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// PublishedPosts returns the stored published posts newest first, undated
// posts last and ties broken by slug.
func (db *DB) PublishedPosts() ([]PostRow, error) {
	rows, err := db.conn.Query(`SELECT slug, path, title, COALESCE(date, ''), formatted_date, year,
		category, category_slug, published
		FROM posts WHERE published = 1
		ORDER BY date IS NULL, date DESC, slug`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	index := make(map[string]int)
	for rows.Next() {
		var p PostRow
		if err := rows.Scan(&p.Slug, &p.Path, &p.Title, &p.Date, &p.FormattedDate, &p.Year,
			&p.Category, &p.CategorySlug, &p.Published); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Tags = []string{}
		index[p.Slug] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	tagRows, err := db.conn.Query(`SELECT t.slug, t.tag FROM post_tags t
		JOIN posts p ON p.slug = t.slug WHERE p.published = 1
		ORDER BY t.slug, t.position`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var s, tag string
		if err := tagRows.Scan(&s, &tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		if i, ok := index[s]; ok {
			out[i].Tags = append(out[i].Tags, tag)
		}
	}
	return out, tagRows.Err()
}

// TagCounts counts published posts per tag, most used first. Tags compare
// case-insensitively.
func (db *DB) TagCounts() ([]TagCount, error) {
	rows, err := db.conn.Query(`SELECT LOWER(t.tag), COUNT(DISTINCT t.slug) AS n
		FROM post_tags t JOIN posts p ON p.slug = t.slug
		WHERE p.published = 1
		GROUP BY LOWER(t.tag)
		ORDER BY n DESC, LOWER(t.tag)`)
	if err != nil {
		return nil, fmt.Errorf("query tag counts: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// PostCount returns the number of stored posts, published or not.
func (db *DB) PostCount() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

// Meta returns a snapshot_meta value.
func (db *DB) Meta(key string) (string, bool) {
	var v string
	if err := db.conn.QueryRow(`SELECT value FROM snapshot_meta WHERE key = ?`, key).Scan(&v); err != nil {
		return "", false
	}
	return v, true
}
