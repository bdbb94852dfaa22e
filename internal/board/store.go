// Package board implements the persistent board store for codesignbot.
//
// It uses SQLite (pure Go, via modernc.org/sqlite) to keep boards, their
// sticky notes and connectors, the critique/theme history, and a small FTS5
// knowledge base of design principles used to ground critique prompts.
package board

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/HowardHan99/codesignbot-sub000/internal/decision"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when a board, note, or connection does not exist.
var ErrNotFound = errors.New("board: not found")

// ErrAlreadyConnected is returned when a connector already exists.
var ErrAlreadyConnected = errors.New("board: notes already connected")

// ─── Types ───────────────────────────────────────────────────────────────────

// Board is a design canvas.
type Board struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// BoardSummary is a board with live note counts.
type BoardSummary struct {
	Board
	NoteCount       int `json:"note_count"`
	ConnectionCount int `json:"connection_count"`
}

// Note is a sticky note stored on a board, inside a named frame.
type Note struct {
	ID        string  `json:"id"`
	BoardID   string  `json:"board_id"`
	Frame     string  `json:"frame"`
	Content   string  `json:"content"`
	CreatedAt string  `json:"created_at"`
	DeletedAt *string `json:"deleted_at,omitempty"`
}

// AddNoteParams holds the input for placing a note on a board. An empty ID
// gets a generated one; an existing ID is updated in place.
type AddNoteParams struct {
	BoardID string `json:"board_id" validate:"required"`
	ID      string `json:"id,omitempty" validate:"omitempty,max=128"`
	Frame   string `json:"frame" validate:"max=200"`
	Content string `json:"content" validate:"required,max=4000"`
}

// Connection is a stored connector between two notes. From and To hold the
// same references the decision builder matches on (content by default).
type Connection struct {
	ID        int64  `json:"id"`
	BoardID   string `json:"board_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	CreatedAt string `json:"created_at"`
}

// ConnectParams holds the input for drawing a connector.
type ConnectParams struct {
	BoardID string `json:"board_id" validate:"required"`
	From    string `json:"from" validate:"required,max=4000"`
	To      string `json:"to" validate:"required,max=4000"`
}

// Critique kinds.
const (
	KindCritique = "critique"
	KindTheme    = "theme"
)

// Critique is one stored run of the critic: the merged points it produced.
type Critique struct {
	ID         int64    `json:"id"`
	BoardID    string   `json:"board_id"`
	Kind       string   `json:"kind"`
	Frame      string   `json:"frame,omitempty"`
	Strategy   string   `json:"strategy"`
	InputCount int      `json:"input_count"`
	Points     []string `json:"points"`
	CreatedAt  string   `json:"created_at"`
}

// SaveCritiqueParams holds the input for recording a critic run.
type SaveCritiqueParams struct {
	BoardID    string   `json:"board_id" validate:"required"`
	Kind       string   `json:"kind" validate:"required,oneof=critique theme"`
	Frame      string   `json:"frame,omitempty"`
	Strategy   string   `json:"strategy" validate:"required"`
	InputCount int      `json:"input_count" validate:"gte=0"`
	Points     []string `json:"points"`
}

// Stats holds aggregate store statistics.
type Stats struct {
	Boards      int `json:"boards"`
	Notes       int `json:"notes"`
	Connections int `json:"connections"`
	Critiques   int `json:"critiques"`
	Themes      int `json:"themes"`
	Knowledge   int `json:"knowledge"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds board store configuration.
type Config struct {
	DataDir          string
	MaxSearchResults int
	// KeyByID makes decision forests match connectors to notes by ID
	// instead of by cleaned content.
	KeyByID bool
	Logger  *log.Logger
}

// DefaultConfig returns the default configuration for the board store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".codesignbot"),
		MaxSearchResults: 20,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent board store backed by SQLite + FTS5.
type Store struct {
	db      *sql.DB
	cfg     Config
	logger  *log.Logger
	builder *decision.Builder
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = DefaultConfig().MaxSearchResults
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("board: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "boards.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("board: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("board: pragma %q: %w", p, err)
		}
	}

	var keyer decision.Keyer = decision.ContentKeyer{}
	if cfg.KeyByID {
		keyer = decision.IDKeyer{}
	}

	s := &Store{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		builder: decision.NewBuilder(keyer, logger),
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("board: migration: %w", err)
	}

	logger.Debug("board store ready", "path", dbPath)
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS boards (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS notes (
			id         TEXT NOT NULL,
			board_id   TEXT NOT NULL,
			frame      TEXT NOT NULL DEFAULT '',
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			deleted_at TEXT,
			PRIMARY KEY (board_id, id),
			FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_notes_frame ON notes(board_id, frame);

		CREATE TABLE IF NOT EXISTS connections (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			board_id   TEXT NOT NULL,
			from_ref   TEXT NOT NULL,
			to_ref     TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_conn_unique ON connections(board_id, from_ref, to_ref);

		CREATE TABLE IF NOT EXISTS critiques (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			board_id    TEXT    NOT NULL,
			kind        TEXT    NOT NULL,
			frame       TEXT    NOT NULL DEFAULT '',
			strategy    TEXT    NOT NULL,
			input_count INTEGER NOT NULL DEFAULT 0,
			points      TEXT    NOT NULL DEFAULT '[]',
			created_at  TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_critiques_board ON critiques(board_id, kind, id DESC);

		CREATE TABLE IF NOT EXISTS knowledge (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			source     TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS knowledge_fts USING fts5(
			title,
			content,
			source,
			content='knowledge',
			content_rowid='id'
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Create FTS triggers (idempotent)
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='knowledge_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER knowledge_fts_insert AFTER INSERT ON knowledge BEGIN
				INSERT INTO knowledge_fts(rowid, title, content, source)
				VALUES (new.id, new.title, new.content, new.source);
			END;

			CREATE TRIGGER knowledge_fts_delete AFTER DELETE ON knowledge BEGIN
				INSERT INTO knowledge_fts(knowledge_fts, rowid, title, content, source)
				VALUES ('delete', old.id, old.title, old.content, old.source);
			END;

			CREATE TRIGGER knowledge_fts_update AFTER UPDATE ON knowledge BEGIN
				INSERT INTO knowledge_fts(knowledge_fts, rowid, title, content, source)
				VALUES ('delete', old.id, old.title, old.content, old.source);
				INSERT INTO knowledge_fts(rowid, title, content, source)
				VALUES (new.id, new.title, new.content, new.source);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Boards ──────────────────────────────────────────────────────────────────

// CreateBoard creates a new board with a generated ID.
func (s *Store) CreateBoard(name string) (*Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	id := uuid.NewString()
	if _, err := s.db.Exec(`INSERT INTO boards (id, name) VALUES (?, ?)`, id, name); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	return s.GetBoard(id)
}

// GetBoard returns a board by ID.
func (s *Store) GetBoard(id string) (*Board, error) {
	var b Board
	err := s.db.QueryRow(
		`SELECT id, name, created_at FROM boards WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("board %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBoards returns all boards, newest first, with live counts.
func (s *Store) ListBoards() ([]BoardSummary, error) {
	rows, err := s.db.Query(`
		SELECT b.id, b.name, b.created_at,
		       (SELECT COUNT(*) FROM notes n WHERE n.board_id = b.id AND n.deleted_at IS NULL),
		       (SELECT COUNT(*) FROM connections c WHERE c.board_id = b.id)
		FROM boards b
		ORDER BY b.created_at DESC, b.rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []BoardSummary
	for rows.Next() {
		var bs BoardSummary
		if err := rows.Scan(&bs.ID, &bs.Name, &bs.CreatedAt, &bs.NoteCount, &bs.ConnectionCount); err != nil {
			return nil, err
		}
		results = append(results, bs)
	}
	return results, rows.Err()
}

// ─── Notes ───────────────────────────────────────────────────────────────────

// AddNote places a note on a board. Re-adding an existing ID replaces its
// content and frame and restores it if it was deleted.
func (s *Store) AddNote(p AddNoteParams) (*Note, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	if _, err := s.GetBoard(p.BoardID); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	if _, err := s.db.Exec(`
		INSERT INTO notes (id, board_id, frame, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(board_id, id) DO UPDATE SET
			frame      = excluded.frame,
			content    = excluded.content,
			deleted_at = NULL
	`, p.ID, p.BoardID, strings.TrimSpace(p.Frame), p.Content); err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}
	return s.GetNote(p.BoardID, p.ID)
}

// GetNote returns a live note.
func (s *Store) GetNote(boardID, id string) (*Note, error) {
	var n Note
	err := s.db.QueryRow(`
		SELECT id, board_id, frame, content, created_at, deleted_at
		FROM notes WHERE board_id = ? AND id = ? AND deleted_at IS NULL
	`, boardID, id).Scan(&n.ID, &n.BoardID, &n.Frame, &n.Content, &n.CreatedAt, &n.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotes returns the live notes of a board in placement order. A non-empty
// frame restricts the result to notes in the frame with that title
// (case-insensitive).
func (s *Store) ListNotes(boardID, frame string) ([]Note, error) {
	query := `
		SELECT id, board_id, frame, content, created_at, deleted_at
		FROM notes
		WHERE board_id = ? AND deleted_at IS NULL
	`
	args := []any{boardID}
	if frame = strings.TrimSpace(frame); frame != "" {
		query += " AND frame = ? COLLATE NOCASE"
		args = append(args, frame)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.BoardID, &n.Frame, &n.Content, &n.CreatedAt, &n.DeletedAt); err != nil {
			return nil, err
		}
		results = append(results, n)
	}
	return results, rows.Err()
}

// ListFrames returns the distinct frame titles that hold live notes.
func (s *Store) ListFrames(boardID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT frame FROM notes
		WHERE board_id = ? AND deleted_at IS NULL AND frame != ''
		GROUP BY frame ORDER BY MIN(rowid)
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var frames []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// DeleteNote soft-deletes a note. Connectors that reference it are kept;
// the decision builder drops them while the note is gone.
func (s *Store) DeleteNote(boardID, id string) error {
	res, err := s.db.Exec(`
		UPDATE notes SET deleted_at = datetime('now')
		WHERE board_id = ? AND id = ? AND deleted_at IS NULL
	`, boardID, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	return nil
}

// ─── Connections ─────────────────────────────────────────────────────────────

// Connect draws a connector between two notes.
func (s *Store) Connect(p ConnectParams) (*Connection, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	if _, err := s.GetBoard(p.BoardID); err != nil {
		return nil, err
	}

	res, err := s.db.Exec(
		`INSERT INTO connections (board_id, from_ref, to_ref) VALUES (?, ?, ?)`,
		p.BoardID, p.From, p.To,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%q -> %q: %w", p.From, p.To, ErrAlreadyConnected)
		}
		return nil, fmt.Errorf("connect: %w", err)
	}
	id, _ := res.LastInsertId()

	var c Connection
	if err := s.db.QueryRow(
		`SELECT id, board_id, from_ref, to_ref, created_at FROM connections WHERE id = ?`, id,
	).Scan(&c.ID, &c.BoardID, &c.From, &c.To, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Disconnect removes a connector.
func (s *Store) Disconnect(boardID, from, to string) error {
	res, err := s.db.Exec(
		`DELETE FROM connections WHERE board_id = ? AND from_ref = ? AND to_ref = ?`,
		boardID, from, to,
	)
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("connection %q -> %q: %w", from, to, ErrNotFound)
	}
	return nil
}

// ListConnections returns a board's connectors in drawing order.
func (s *Store) ListConnections(boardID string) ([]Connection, error) {
	rows, err := s.db.Query(`
		SELECT id, board_id, from_ref, to_ref, created_at
		FROM connections WHERE board_id = ? ORDER BY id
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.ID, &c.BoardID, &c.From, &c.To, &c.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// ─── Decision forest ─────────────────────────────────────────────────────────

// DecisionInput loads the notes of a frame (or the whole board) and all of
// the board's connectors in the shape the decision builder takes.
func (s *Store) DecisionInput(boardID, frame string) ([]decision.Note, []decision.Connection, error) {
	if _, err := s.GetBoard(boardID); err != nil {
		return nil, nil, err
	}
	notes, err := s.ListNotes(boardID, frame)
	if err != nil {
		return nil, nil, err
	}
	conns, err := s.ListConnections(boardID)
	if err != nil {
		return nil, nil, err
	}

	dn := make([]decision.Note, len(notes))
	for i, n := range notes {
		dn[i] = decision.Note{ID: n.ID, Content: n.Content}
	}
	dc := make([]decision.Connection, len(conns))
	for i, c := range conns {
		dc[i] = decision.Connection{From: c.From, To: c.To}
	}
	return dn, dc, nil
}

// DecisionForest builds the decision forest of a frame (or the whole board).
func (s *Store) DecisionForest(boardID, frame string) ([]*decision.TreeNode, error) {
	notes, conns, err := s.DecisionInput(boardID, frame)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(notes, conns), nil
}

// ─── Critiques ───────────────────────────────────────────────────────────────

// SaveCritique records a critic run.
func (s *Store) SaveCritique(p SaveCritiqueParams) (*Critique, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	if p.Points == nil {
		p.Points = []string{}
	}
	points, err := json.Marshal(p.Points)
	if err != nil {
		return nil, fmt.Errorf("encode points: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO critiques (board_id, kind, frame, strategy, input_count, points)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.BoardID, p.Kind, p.Frame, p.Strategy, p.InputCount, string(points))
	if err != nil {
		return nil, fmt.Errorf("save critique: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getCritique(id)
}

func (s *Store) getCritique(id int64) (*Critique, error) {
	row := s.db.QueryRow(`
		SELECT id, board_id, kind, frame, strategy, input_count, points, created_at
		FROM critiques WHERE id = ?
	`, id)
	c, err := scanCritique(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("critique %d: %w", id, ErrNotFound)
	}
	return c, err
}

// ListCritiques returns a board's critic runs, newest first. An empty kind
// returns every kind.
func (s *Store) ListCritiques(boardID, kind string, limit int) ([]Critique, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT id, board_id, kind, frame, strategy, input_count, points, created_at
		FROM critiques WHERE board_id = ?
	`
	args := []any{boardID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list critiques: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Critique
	for rows.Next() {
		c, err := scanCritique(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, *c)
	}
	return results, rows.Err()
}

func scanCritique(scan func(dest ...any) error) (*Critique, error) {
	var c Critique
	var points string
	if err := scan(&c.ID, &c.BoardID, &c.Kind, &c.Frame, &c.Strategy, &c.InputCount, &points, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(points), &c.Points); err != nil {
		return nil, fmt.Errorf("decode critique %d points: %w", c.ID, err)
	}
	return &c, nil
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate store statistics.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	_ = s.db.QueryRow("SELECT COUNT(*) FROM boards").Scan(&stats.Boards)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM notes WHERE deleted_at IS NULL").Scan(&stats.Notes)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM connections").Scan(&stats.Connections)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM critiques WHERE kind = ?", KindCritique).Scan(&stats.Critiques)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM critiques WHERE kind = ?", KindTheme).Scan(&stats.Themes)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM knowledge").Scan(&stats.Knowledge)

	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Truncate shortens a string to at most max bytes with ellipsis, cutting on
// a rune boundary.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
