package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/hierarchy"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a document id or content hash is unknown.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned by Save when a different document already holds
// the content hash.
var ErrDuplicate = errors.New("duplicate content hash")

// Store persists finished outlines in SQLite.
type Store struct {
	db *sql.DB
}

// DocumentInfo is the summary row of a stored outline.
type DocumentInfo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Pages       int       `json:"pages"`
	Nodes       int       `json:"nodes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Outline is a stored document with its reconstructed forest.
type Outline struct {
	Info       DocumentInfo
	Records    []hierarchy.FlatRecord
	Forest     doctree.Forest
	Stats      hierarchy.ReconstructStats
	Warnings   []doctree.Warning
	Processing hierarchy.ProcessingInfo
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases and pragmas consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes a document, replacing any previous version with the same id.
// The write is rejected with ErrDuplicate, leaving the store unchanged, when
// another document has the same non-empty content hash.
func (s *Store) Save(ctx context.Context, info DocumentInfo, forest doctree.Forest, warnings []doctree.Warning, proc hierarchy.ProcessingInfo) error {
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now().UTC()
	}
	procJSON, err := json.Marshal(proc)
	if err != nil {
		return fmt.Errorf("marshal processing info: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, info.ID); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, filename, content_hash, pages, node_count, processing, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		info.ID, info.Title, info.Filename, info.ContentHash, info.Pages, forest.Count(),
		string(procJSON), info.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	// The id row was just deleted, so only the content hash can conflict.
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("insert document: %w", err)
	} else if n == 0 {
		return fmt.Errorf("save %s: %w", info.ID, ErrDuplicate)
	}

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (doc_id, seq, node_id, tier, identifier, keyword, title, content, level, page_start, page_end, parent_path, has_children)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare nodes: %w", err)
	}
	defer nodeStmt.Close()

	for i, r := range hierarchy.Flatten(forest) {
		_, err := nodeStmt.ExecContext(ctx, info.ID, i, r.ID, r.Tier.String(),
			nullable(r.Identifier), r.Keyword, nullable(r.Title), r.Content,
			r.Level, r.PageStart, r.PageEnd, nullable(r.ParentPath), boolInt(r.HasChildren))
		if err != nil {
			return fmt.Errorf("insert node %s: %w", r.ID, err)
		}
	}

	for i, w := range warnings {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO warnings (doc_id, seq, node_id, rule, detail) VALUES (?, ?, ?, ?, ?)`,
			info.ID, i, w.NodeID, w.Rule, w.Detail)
		if err != nil {
			return fmt.Errorf("insert warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads a document and rebuilds its tree from the flat rows.
func (s *Store) Load(ctx context.Context, id string) (*Outline, error) {
	info, procJSON, err := s.info(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	out := &Outline{Info: info}
	if err := json.Unmarshal([]byte(procJSON), &out.Processing); err != nil {
		return nil, fmt.Errorf("decode processing info: %w", err)
	}

	if out.Records, err = s.records(ctx, id); err != nil {
		return nil, err
	}
	if out.Warnings, err = s.warnings(ctx, id); err != nil {
		return nil, err
	}
	out.Forest, out.Stats = hierarchy.Reconstruct(out.Records)
	return out, nil
}

// FindByHash returns the document stored for a content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (DocumentInfo, error) {
	info, _, err := s.info(ctx, `WHERE content_hash = ? ORDER BY created_at DESC LIMIT 1`, hash)
	return info, err
}

// List returns stored documents, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]DocumentInfo, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, filename, content_hash, pages, node_count, created_at
		 FROM documents ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentInfo
	for rows.Next() {
		var info DocumentInfo
		var created string
		if err := rows.Scan(&info.ID, &info.Title, &info.Filename, &info.ContentHash, &info.Pages, &info.Nodes, &created); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		info.CreatedAt = parseTime(created)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a document with its nodes and warnings.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) info(ctx context.Context, where string, args ...any) (DocumentInfo, string, error) {
	var info DocumentInfo
	var created, proc string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, filename, content_hash, pages, node_count, processing, created_at FROM documents `+where,
		args...).Scan(&info.ID, &info.Title, &info.Filename, &info.ContentHash, &info.Pages, &info.Nodes, &proc, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return info, "", ErrNotFound
	}
	if err != nil {
		return info, "", fmt.Errorf("query document: %w", err)
	}
	info.CreatedAt = parseTime(created)
	return info, proc, nil
}

func (s *Store) records(ctx context.Context, id string) ([]hierarchy.FlatRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id, tier, identifier, keyword, title, content, level, page_start, page_end, parent_path, has_children
		 FROM nodes WHERE doc_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var out []hierarchy.FlatRecord
	for rows.Next() {
		var r hierarchy.FlatRecord
		var tier string
		var ident, title, path sql.NullString
		err := rows.Scan(&r.ID, &tier, &ident, &r.Keyword, &title, &r.Content,
			&r.Level, &r.PageStart, &r.PageEnd, &path, &r.HasChildren)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if r.Tier, err = doctree.ParseTier(tier); err != nil {
			return nil, fmt.Errorf("node %s: %w", r.ID, err)
		}
		r.Identifier, r.Title, r.ParentPath = fromNull(ident), fromNull(title), fromNull(path)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) warnings(ctx context.Context, id string) ([]doctree.Warning, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id, rule, detail FROM warnings WHERE doc_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	out := []doctree.Warning{}
	for rows.Next() {
		var w doctree.Warning
		if err := rows.Scan(&w.NodeID, &w.Rule, &w.Detail); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
