//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"
)

func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

const snippetRadius = 60

// Search matches notes containing every whitespace-separated term in the
// title, body or tags. Title hits rank first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var (
		where []string
		args  []any
	)
	for _, term := range terms {
		like := "%" + escapeLike(term) + "%"
		where = append(where, `(lower(title) LIKE ? ESCAPE '\' OR lower(body) LIKE ? ESCAPE '\' OR lower(tags) LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	first := "%" + escapeLike(terms[0]) + "%"
	args = append(args, first, limit)

	rows, err := db.conn.Query(`
		SELECT id, title, path, body
		FROM notes
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY (lower(title) LIKE ? ESCAPE '\') DESC, title
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var (
			r    SearchResult
			body string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Path, &body); err != nil {
			return nil, err
		}
		r.Snippet = snippetAround(body, terms[0])
		out = append(out, r)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// snippetAround cuts a window of body centred on the first occurrence of
// term, marking elided text with "...".
func snippetAround(body, term string) string {
	lower := strings.ToLower(body)
	at := strings.Index(lower, term)
	if at < 0 || len(lower) != len(body) {
		at = 0
	}
	start := max(at-snippetRadius, 0)
	end := min(at+len(term)+snippetRadius, len(body))
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}

	s := strings.Join(strings.Fields(body[start:end]), " ")
	if start > 0 {
		s = "..." + s
	}
	if end < len(body) {
		s += "..."
	}
	return s
}
