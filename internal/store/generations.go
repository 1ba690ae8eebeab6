package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"videod/pkg/types"
)

// Generation is a stored generation row: the record plus store identity.
type Generation struct {
	ID        int64 `json:"id"`
	CreatedAt int64 `json:"created_at_unix"`
	types.GenerationRecord
}

// AddGeneration inserts a terminal generation record and returns its id.
func (s *Store) AddGeneration(ctx context.Context, rec types.GenerationRecord) (int64, error) {
	var lorasJSON sql.NullString
	if len(rec.LoRAs) > 0 {
		b, err := json.Marshal(rec.LoRAs)
		if err != nil {
			return 0, fmt.Errorf("marshal loras: %w", err)
		}
		lorasJSON = sql.NullString{String: string(b), Valid: true}
	}
	var seed sql.NullInt64
	if rec.Seed != nil {
		seed = sql.NullInt64{Int64: *rec.Seed, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO generations
			(prompt, steps, width, height, filename, generation_time,
			 file_size_kb, model, precision, seed, cfg_scale, status, loras, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Prompt, rec.Steps, rec.Width, rec.Height, rec.Filename,
		rec.GenerationTime, rec.FileSizeKB, rec.Model, rec.Precision,
		seed, rec.CFGScale, rec.Status, lorasJSON, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert generation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("generation id: %w", err)
	}
	return id, nil
}

// ListGenerations returns the most recent generations, newest first.
// A limit of 0 or less applies a sane default.
func (s *Store) ListGenerations(ctx context.Context, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prompt, steps, width, height, filename, generation_time,
		       file_size_kb, model, precision, seed, cfg_scale, status, loras, created_at
		FROM generations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		var g Generation
		var seed sql.NullInt64
		var loras sql.NullString
		if err := rows.Scan(
			&g.ID, &g.Prompt, &g.Steps, &g.Width, &g.Height, &g.Filename,
			&g.GenerationTime, &g.FileSizeKB, &g.Model, &g.Precision,
			&seed, &g.CFGScale, &g.Status, &loras, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		if seed.Valid {
			v := seed.Int64
			g.Seed = &v
		}
		if loras.Valid && loras.String != "" {
			if err := json.Unmarshal([]byte(loras.String), &g.LoRAs); err != nil {
				return nil, fmt.Errorf("decode loras for generation %d: %w", g.ID, err)
			}
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
