package board

import (
	"fmt"
	"strings"
)

// Knowledge is a design principle or reference snippet used to ground
// critique prompts.
type Knowledge struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Source    string  `json:"source,omitempty"`
	CreatedAt string  `json:"created_at"`
	Rank      float64 `json:"rank,omitempty"`
}

// AddKnowledgeParams holds the input for a knowledge entry.
type AddKnowledgeParams struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=8000"`
	Source  string `json:"source,omitempty" validate:"max=500"`
}

// AddKnowledge stores a knowledge entry and indexes it for search.
func (s *Store) AddKnowledge(p AddKnowledgeParams) (int64, error) {
	if err := validateStruct(p); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO knowledge (title, content, source) VALUES (?, ?, ?)`,
		strings.TrimSpace(p.Title), p.Content, p.Source,
	)
	if err != nil {
		return 0, fmt.Errorf("add knowledge: %w", err)
	}
	return res.LastInsertId()
}

// SearchKnowledge runs a full-text query over the knowledge base, best match
// first. Each word matches as a prefix and any word may match. An empty
// query returns the most recent entries.
func (s *Store) SearchKnowledge(query string, limit int) ([]Knowledge, error) {
	if limit <= 0 {
		limit = 5
	}
	if limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	ftsQuery := sanitizeFTS(query)
	var sqlStr string
	var args []any
	if ftsQuery == "" {
		sqlStr = `
			SELECT id, title, content, source, created_at, 0 AS rank
			FROM knowledge ORDER BY id DESC LIMIT ?
		`
		args = []any{limit}
	} else {
		sqlStr = `
			SELECT k.id, k.title, k.content, k.source, k.created_at, fts.rank
			FROM knowledge_fts fts
			JOIN knowledge k ON k.id = fts.rowid
			WHERE knowledge_fts MATCH ?
			ORDER BY fts.rank LIMIT ?
		`
		args = []any{ftsQuery, limit}
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Knowledge
	for rows.Next() {
		var k Knowledge
		if err := rows.Scan(&k.ID, &k.Title, &k.Content, &k.Source, &k.CreatedAt, &k.Rank); err != nil {
			return nil, err
		}
		results = append(results, k)
	}
	return results, rows.Err()
}

// sanitizeFTS quotes each word as a prefix phrase and ORs them, so user text
// with FTS5 operators or punctuation cannot break the query.
func sanitizeFTS(query string) string {
	var terms []string
	for _, w := range strings.Fields(query) {
		w = strings.Trim(strings.ReplaceAll(w, `"`, ""), ".,;:!?()[]{}'*^-+")
		if w == "" {
			continue
		}
		terms = append(terms, `"`+w+`"*`)
	}
	return strings.Join(terms, " OR ")
}
