package database

import (
	"database/sql"
)

// InsertArticle inserts a sampled article. Returns the ID on success, 0 if
// the title was already present.
func (db *DB) InsertArticle(title string, url *string, contentLength, latestRevID int64, excerpt *string, source string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO articles (title, url, content_length, latest_rev_id, excerpt, source)
		VALUES (?, ?, ?, ?, ?, ?)`,
		title, url, contentLength, latestRevID, excerpt, source,
	)
	if err != nil {
		// Duplicate title constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// GetArticles returns sampled articles, newest first.
func (db *DB) GetArticles(limit int) ([]Article, error) {
	query := `SELECT id, title, url, content_length, latest_rev_id, excerpt, source, discovered_at
		FROM articles ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetArticleByTitle returns a single article, or nil if absent.
func (db *DB) GetArticleByTitle(title string) (*Article, error) {
	row := db.conn.QueryRow(
		`SELECT id, title, url, content_length, latest_rev_id, excerpt, source, discovered_at
		FROM articles WHERE title = ?`, title,
	)
	var a Article
	err := row.Scan(&a.ID, &a.Title, &a.URL, &a.ContentLength, &a.LatestRevID,
		&a.Excerpt, &a.Source, &a.DiscoveredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &a.ContentLength, &a.LatestRevID,
			&a.Excerpt, &a.Source, &a.DiscoveredAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
