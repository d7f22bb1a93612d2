package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/settlement"
)

// Markets implementa o MarketStore do ciclo de liquidação em banco Postgres
type Markets struct{ db *sql.DB }

// NewMarkets retorna uma instância do repositório de mercados
func NewMarkets(db *sql.DB) *Markets { return &Markets{db: db} }

// marketResults é o payload JSONB gravado na resolução do mercado, com os
// eventos separados por jogo (A e B).
type marketResults struct {
	EventsBySide struct {
		A sideEvents `json:"A"`
		B sideEvents `json:"B"`
	} `json:"eventsBySide"`
}

type sideEvents struct {
	GameID string        `json:"gameId"`
	Events []resultEvent `json:"events"`
}

type resultEvent struct {
	OriginalType string    `json:"originalType"`
	Type         string    `json:"type"` // categoria normalizada
	EventName    string    `json:"eventName"`
	Timestamp    time.Time `json:"timestamp"`
	MatchTime    string    `json:"matchTime"`
	Competitor   string    `json:"competitor"`
}

// FindProcessing retorna os ids dos mercados em processamento
func (r *Markets) FindProcessing(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT market_id FROM markets WHERE status = 'processing' ORDER BY market_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetEvents carrega os eventos dos results do mercado, mesclando os dois
// jogos (A antes de B) e ordenando por timestamp. Mercado sem results ainda
// gravados retorna slice vazio: as apostas dele saem como reembolso.
func (r *Markets) GetEvents(ctx context.Context, marketID string) ([]settlement.GameEvent, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT results FROM markets WHERE market_id = $1`, marketID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("market %s not found", marketID)
	}
	if err != nil {
		return nil, err
	}
	return parseResults(raw)
}

// parseResults decodifica o JSONB de results e devolve a sequência ordenada
// de eventos, com o jogo A inserido antes do B (desempate de timestamps).
func parseResults(raw []byte) ([]settlement.GameEvent, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var results marketResults
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("decode market results: %w", err)
	}

	var events []settlement.GameEvent
	appendSide := func(side string, se sideEvents) {
		for _, e := range se.Events {
			events = append(events, settlement.GameEvent{
				Side:         side,
				OriginalType: e.OriginalType,
				MappedType:   e.Type,
				EventName:    e.EventName,
				Timestamp:    e.Timestamp,
				MatchClock:   e.MatchTime,
				Competitor:   e.Competitor,
			})
		}
	}
	appendSide("A", results.EventsBySide.A)
	appendSide("B", results.EventsBySide.B)

	return settlement.OrderEvents(events), nil
}

// Complete marca o mercado como concluído com o payout agregado
func (r *Markets) Complete(ctx context.Context, marketID string, totalPayout float64) error {
	const q = `
		UPDATE markets
		SET status = 'completed',
		    total_payout = $1,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE market_id = $2
	`
	_, err := r.db.ExecContext(ctx, q, totalPayout, marketID)
	return err
}
