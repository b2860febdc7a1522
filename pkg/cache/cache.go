package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/citationengine/engine/pkg/citation"
)

// VerificationCache persists authority lookup results so repeat citations,
// whether in the same document or across documents, skip the rate-limited
// authority entirely. It implements verify.Cache.
type VerificationCache struct {
	db  *sqlx.DB
	log *zap.Logger
}

// NewVerificationCache wraps an already-open *sql.DB (Postgres, via
// lib/pq) as a VerificationCache.
func NewVerificationCache(db *sql.DB, log *zap.Logger) *VerificationCache {
	return &VerificationCache{db: sqlx.NewDb(db, "postgres"), log: log}
}

type cacheRow struct {
	CitationText  string `db:"citation_text"`
	Found         bool   `db:"found"`
	CanonicalName string `db:"canonical_name"`
	CanonicalDate string `db:"canonical_date"`
	CanonicalURL  string `db:"canonical_url"`
	Jurisdiction  string `db:"jurisdiction"`
	Source        string `db:"source"`
}

// Get returns the cached verification result for citationText, if any.
func (c *VerificationCache) Get(ctx context.Context, citationText string) (*citation.VerificationResult, bool, error) {
	var row cacheRow
	err := c.db.GetContext(ctx, &row, `
		SELECT citation_text, found, canonical_name, canonical_date, canonical_url, jurisdiction, source
		FROM verification_cache WHERE citation_text = $1`, citationText)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		c.log.Error("verification cache lookup failed", zap.String("citation", citationText), zap.Error(err))
		return nil, false, fmt.Errorf("verification cache lookup: %w", err)
	}

	result := &citation.VerificationResult{
		CitationText:  row.CitationText,
		Found:         row.Found,
		CanonicalName: row.CanonicalName,
		CanonicalDate: row.CanonicalDate,
		CanonicalURL:  row.CanonicalURL,
		Jurisdiction:  row.Jurisdiction,
		Source:        citation.VerificationSource(row.Source),
	}
	return result, true, nil
}

// Set upserts the verification result for citationText.
func (c *VerificationCache) Set(ctx context.Context, citationText string, result *citation.VerificationResult) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO verification_cache (citation_text, found, canonical_name, canonical_date, canonical_url, jurisdiction, source, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (citation_text) DO UPDATE SET
			found = EXCLUDED.found,
			canonical_name = EXCLUDED.canonical_name,
			canonical_date = EXCLUDED.canonical_date,
			canonical_url = EXCLUDED.canonical_url,
			jurisdiction = EXCLUDED.jurisdiction,
			source = EXCLUDED.source,
			cached_at = now()`,
		citationText, result.Found, result.CanonicalName, result.CanonicalDate, result.CanonicalURL, result.Jurisdiction, string(result.Source))
	if err != nil {
		c.log.Error("verification cache upsert failed", zap.String("citation", citationText), zap.Error(err))
		return fmt.Errorf("verification cache upsert: %w", err)
	}
	return nil
}
