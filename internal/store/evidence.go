package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/quorumlabs/quorum/internal/domain"
)

// ErrOutOfSync reports that the vector index and the metadata arena disagree
// on the number of stored records. The store never repairs this on its own;
// callers decide whether to refuse service.
var ErrOutOfSync = errors.New("vector index and metadata out of sync")

// EvidenceStore is the persistent, append-only vector memory. It keeps two
// parallel arenas: evidence_meta (the metadata list) and evidence_vectors
// (the dense index). Both only ever grow, and a position, once assigned,
// always resolves to the same vector.
type EvidenceStore struct {
	db  *pgxpool.Pool
	dim int
}

func NewEvidenceStore(db *pgxpool.Pool, dim int) *EvidenceStore {
	return &EvidenceStore{db: db, dim: dim}
}

// EnsureSchema creates the arena tables if they do not exist.
func (s *EvidenceStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	if _, err := s.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS evidence_meta (
		position BIGSERIAL PRIMARY KEY,
		query_text TEXT NOT NULL,
		summary TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		domain TEXT NOT NULL DEFAULT '',
		author TEXT,
		venue_type TEXT,
		published_date TEXT,
		retrieved_date TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("create evidence_meta: %w", err)
	}

	if _, err := s.db.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS evidence_vectors (
		position BIGINT PRIMARY KEY REFERENCES evidence_meta(position),
		embedding vector(%d) NOT NULL
	)`, s.dim)); err != nil {
		return fmt.Errorf("create evidence_vectors: %w", err)
	}

	return nil
}

// Load checks the count invariant between the two arenas and returns the
// record count. A mismatch is fatal at startup.
func (s *EvidenceStore) Load(ctx context.Context) (int, error) {
	var vectors, meta int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM evidence_vectors`).Scan(&vectors); err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM evidence_meta`).Scan(&meta); err != nil {
		return 0, fmt.Errorf("count metadata: %w", err)
	}
	if vectors != meta {
		return 0, fmt.Errorf("%w: %d vectors, %d metadata records", ErrOutOfSync, vectors, meta)
	}
	return meta, nil
}

// Search returns up to k stored records ranked by descending inner product
// against the query embedding. Embeddings are unit-normalized on the way in,
// so inner product ordering is cosine ordering. An empty store returns an
// empty result, never an error.
func (s *EvidenceStore) Search(ctx context.Context, embedding []float32, k int) ([]domain.StoredEvidence, error) {
	if k <= 0 {
		k = 10
	}

	vec := pgvector.NewVector(embedding)

	// <#> is negative inner product, so ascending order is best-first.
	rows, err := s.db.Query(ctx,
		`SELECT m.query_text, m.summary, m.url, m.domain, m.author, m.venue_type, m.published_date, m.retrieved_date, v.embedding
		 FROM evidence_vectors v
		 JOIN evidence_meta m USING (position)
		 ORDER BY v.embedding <#> $1
		 LIMIT $2`,
		vec, k,
	)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []domain.StoredEvidence
	for rows.Next() {
		var rec domain.StoredEvidence
		var emb pgvector.Vector
		if err := rows.Scan(
			&rec.QueryText, &rec.Summary, &rec.URL, &rec.Domain,
			&rec.Author, &rec.VenueType, &rec.PublishedDate, &rec.RetrievedDate,
			&emb,
		); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		rec.Embedding = emb.Slice()
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}

	return results, nil
}

// Upsert appends records to both arenas in a single transaction: callers
// never observe a state where only one arena grew. Records whose URL is
// already stored are skipped, which keeps the store deduplicated across runs.
func (s *EvidenceStore) Upsert(ctx context.Context, records []domain.StoredEvidence) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, rec := range records {
		if len(rec.Embedding) != s.dim {
			return fmt.Errorf("embedding dimension %d does not match store dimension %d (url %s)", len(rec.Embedding), s.dim, rec.URL)
		}

		var position int64
		err := tx.QueryRow(ctx,
			`INSERT INTO evidence_meta (query_text, summary, url, domain, author, venue_type, published_date, retrieved_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (url) DO NOTHING
			 RETURNING position`,
			rec.QueryText, rec.Summary, rec.URL, rec.Domain, rec.Author, rec.VenueType, rec.PublishedDate, rec.RetrievedDate,
		).Scan(&position)
		if errors.Is(err, pgx.ErrNoRows) {
			// URL already stored, skip
			continue
		}
		if err != nil {
			return fmt.Errorf("insert metadata: %w", err)
		}

		vec := pgvector.NewVector(rec.Embedding)
		if _, err := tx.Exec(ctx,
			`INSERT INTO evidence_vectors (position, embedding) VALUES ($1, $2)`,
			position, vec,
		); err != nil {
			return fmt.Errorf("insert vector: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}
