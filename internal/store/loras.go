package store

import (
	"context"
	"fmt"
	"time"

	"videod/pkg/types"
)

// AddLoRA registers a LoRA weight file. Filenames are unique.
func (s *Store) AddLoRA(ctx context.Context, filename, displayName string) (int64, error) {
	if filename == "" {
		return 0, fmt.Errorf("lora filename is required")
	}
	if displayName == "" {
		displayName = filename
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO loras (filename, display_name, created_at) VALUES (?, ?, ?)`,
		filename, displayName, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert lora: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("lora id: %w", err)
	}
	return id, nil
}

// ListLoRAs returns every registered LoRA in registration order.
func (s *Store) ListLoRAs(ctx context.Context) ([]types.LoRA, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, display_name, created_at FROM loras ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query loras: %w", err)
	}
	defer rows.Close()

	var out []types.LoRA
	for rows.Next() {
		var l types.LoRA
		if err := rows.Scan(&l.ID, &l.Filename, &l.DisplayName, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lora: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
