package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
)

var _ ports.AnalysisLog = (*DB)(nil)

// Append inserts one record. The analyses table has no update or delete path.
func (db *DB) Append(ctx context.Context, rec domain.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO analyses (id, url, total_score, tier, is_phishing, ip_address, user_agent, record, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.Target.Raw, rec.TotalScore, string(rec.Tier), rec.IsPhishing,
		rec.IPAddress, rec.UserAgent, payload, rec.CreatedAt)
	return err
}

// Scan streams records in insertion order.
func (db *DB) Scan(ctx context.Context, fn func(domain.Record) error) error {
	rows, err := db.Pool.Query(ctx, `SELECT tier, record FROM analyses ORDER BY seq`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tierCol string
			raw     []byte
		)
		if err := rows.Scan(&tierCol, &raw); err != nil {
			return err
		}
		var rec domain.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		// The tier column wins over the payload.
		tier, err := domain.TierFromString(tierCol)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		rec.Tier = tier
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}
