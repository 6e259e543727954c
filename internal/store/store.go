// Package store persists document records and synthesis profiles in SQLite.
// Values round-trip as JSON so the "Non spécifié" sentinel survives storage
// exactly, the aggregator depends on distinguishing it from absent fields.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/classify"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/extract"
)

// ErrNotFound is returned when a document or synthesis id is unknown.
var ErrNotFound = errors.New("not found")

// Document is one processed document with its pipeline results. Extraction
// is nil when that stage failed, the classification is always present.
type Document struct {
	ID             string          `json:"id"`
	Filename       string          `json:"filename"`
	RawText        string          `json:"-"`
	Classification classify.Result `json:"classification"`
	Extraction     *extract.Result `json:"extraction"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Synthesis is one persisted financing profile keyed by dossier id.
type Synthesis struct {
	DossierID  string          `json:"dossier_id"`
	Profile    json.RawMessage `json:"profile"`
	Confidence float64         `json:"confidence"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Store wraps the SQLite database. SQLite allows one writer at a time, so
// writes serialize behind a mutex while reads run concurrently.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id             TEXT PRIMARY KEY,
	filename       TEXT NOT NULL,
	raw_text       TEXT NOT NULL,
	classification TEXT NOT NULL,
	extraction     TEXT,
	created_at     TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS syntheses (
	dossier_id TEXT PRIMARY KEY,
	profile    TEXT NOT NULL,
	confidence REAL NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Open opens (creating if needed) the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("store.opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutDocument inserts or replaces a document record.
func (s *Store) PutDocument(ctx context.Context, doc *Document) error {
	classJSON, err := json.Marshal(doc.Classification)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}

	var extJSON any
	if doc.Extraction != nil {
		b, err := json.Marshal(doc.Extraction)
		if err != nil {
			return fmt.Errorf("marshal extraction: %w", err)
		}
		extJSON = string(b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (id, filename, raw_text, classification, extraction, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.RawText, string(classJSON), extJSON, doc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument fetches one document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, raw_text, classification, extraction, created_at
		FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return doc, err
}

// DeleteDocument removes one document by id.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, raw_text, classification, extraction, created_at
		FROM documents ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// GetDocumentsWithExtractions fetches the given ids and keeps only records
// carrying a non-null extraction. Unknown ids are skipped, not errored, the
// aggregator reports NoUsableInput when nothing remains.
func (s *Store) GetDocumentsWithExtractions(ctx context.Context, ids []string) ([]*Document, error) {
	out := make([]*Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.GetDocument(ctx, id)
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("store.document_missing", "id", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if doc.Extraction == nil {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

// PutSynthesis appends a synthesis profile keyed by dossier id.
func (s *Store) PutSynthesis(ctx context.Context, syn *Synthesis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO syntheses (dossier_id, profile, confidence, created_at)
		VALUES (?, ?, ?, ?)`,
		syn.DossierID, string(syn.Profile), syn.Confidence, syn.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert synthesis: %w", err)
	}
	return nil
}

// GetSynthesis fetches one synthesis by dossier id.
func (s *Store) GetSynthesis(ctx context.Context, dossierID string) (*Synthesis, error) {
	var syn Synthesis
	var profile string
	err := s.db.QueryRowContext(ctx, `
		SELECT dossier_id, profile, confidence, created_at
		FROM syntheses WHERE dossier_id = ?`, dossierID).
		Scan(&syn.DossierID, &profile, &syn.Confidence, &syn.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("synthesis %s: %w", dossierID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get synthesis: %w", err)
	}
	syn.Profile = json.RawMessage(profile)
	return &syn, nil
}

// ListSyntheses returns all syntheses, newest first.
func (s *Store) ListSyntheses(ctx context.Context) ([]*Synthesis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dossier_id, profile, confidence, created_at
		FROM syntheses ORDER BY created_at DESC, dossier_id`)
	if err != nil {
		return nil, fmt.Errorf("list syntheses: %w", err)
	}
	defer rows.Close()

	var out []*Synthesis
	for rows.Next() {
		var syn Synthesis
		var profile string
		if err := rows.Scan(&syn.DossierID, &profile, &syn.Confidence, &syn.CreatedAt); err != nil {
			return nil, err
		}
		syn.Profile = json.RawMessage(profile)
		out = append(out, &syn)
	}
	return out, rows.Err()
}

// Stats summarizes store contents for the stats endpoint.
type Stats struct {
	Documents      int            `json:"documents"`
	Syntheses      int            `json:"syntheses"`
	ByDocumentType map[string]int `json:"par_type"`
}

// GetStats counts documents, syntheses and the per-type breakdown.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByDocumentType: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&stats.Documents); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM syntheses`).Scan(&stats.Syntheses); err != nil {
		return nil, fmt.Errorf("count syntheses: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT json_extract(classification, '$.type_document') AS t, COUNT(*)
		FROM documents GROUP BY t`)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ sql.NullString
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		if typ.Valid {
			stats.ByDocumentType[typ.String] = n
		}
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var classJSON string
	var extJSON sql.NullString
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.RawText, &classJSON, &extJSON, &doc.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(classJSON), &doc.Classification); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	if extJSON.Valid {
		var ext extract.Result
		if err := json.Unmarshal([]byte(extJSON.String), &ext); err != nil {
			return nil, fmt.Errorf("decode extraction: %w", err)
		}
		doc.Extraction = &ext
	}
	return &doc, nil
}

func collectDocuments(rows *sql.Rows) ([]*Document, error) {
	var out []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}
