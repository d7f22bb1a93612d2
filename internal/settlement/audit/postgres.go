package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Postgres grava o trilho de auditoria da liquidação na tabela bet_logs.
// Registros são append-only: nunca são atualizados nem removidos pelo worker.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Append insere um registro de auditoria para a aposta
func (a *Postgres) Append(ctx context.Context, betID, entryType string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal bet_log data: %w", err)
	}

	const q = `
		INSERT INTO bet_logs (id, bet_id, type, ts, data, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err = a.db.ExecContext(ctx, q,
		uuid.NewString(), betID, entryType, time.Now().UTC().Format(time.RFC3339), payload)
	return err
}
