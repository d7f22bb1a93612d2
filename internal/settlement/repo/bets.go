package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/settlement"
)

// Bets implementa o BetStore do ciclo de liquidação em banco Postgres
type Bets struct{ db *sql.DB }

// NewBets retorna uma instância do repositório de apostas
func NewBets(db *sql.DB) *Bets { return &Bets{db: db} }

// FindConfirmedByMarkets retorna as apostas confirmadas dos mercados
// informados, ordenadas por data de criação (iteração determinística)
func (r *Bets) FindConfirmedByMarkets(ctx context.Context, marketIDs []string) ([]settlement.Bet, error) {
	const q = `
		SELECT bet_id, user_id, account_id, market_id, status,
		       stake, odd,
		       placed_date, app_login_id, sport_id, sport_name,
		       competition_id, competition_name, event_id, event_name, event_date,
		       handicap, market_name, market_type, selection_id, selection_name, bet_ref,
		       created_at, updated_at
		FROM bets
		WHERE status = 'confirmed' AND market_id = ANY($1)
		ORDER BY created_at, bet_id
	`
	rows, err := r.db.QueryContext(ctx, q, pq.Array(marketIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []settlement.Bet
	for rows.Next() {
		var b settlement.Bet
		var handicap sql.NullString
		if err := rows.Scan(
			&b.BetID, &b.UserID, &b.AccountID, &b.MarketID, &b.Status,
			&b.Stake, &b.Odd,
			&b.PlacedDate, &b.AppLoginID, &b.SportID, &b.SportName,
			&b.CompetitionID, &b.CompetitionName, &b.EventID, &b.EventName, &b.EventDate,
			&handicap, &b.MarketName, &b.MarketType, &b.SelectionID, &b.SelectionName, &b.BetRef,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if handicap.Valid {
			b.Handicap = &handicap.String
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// Settle grava o estado terminal de uma aposta liquidada.
// payout e refund ficam NULL quando não se aplicam ao resultado.
func (r *Bets) Settle(ctx context.Context, out settlement.Outcome) error {
	var payout, refund sql.NullFloat64
	if out.WinAmount > 0 {
		payout = sql.NullFloat64{Float64: out.WinAmount, Valid: true}
	}
	if out.RefundAmount > 0 {
		refund = sql.NullFloat64{Float64: out.RefundAmount, Valid: true}
	}

	const q = `
		UPDATE bets
		SET status = $1,
		    payout = $2,
		    refund = $3,
		    result_reason = $4,
		    events_count = $5,
		    processed_at = NOW(),
		    updated_at = NOW()
		WHERE bet_id = $6
	`
	_, err := r.db.ExecContext(ctx, q,
		out.Status, payout, refund, out.ResultReason, out.EventsCount, out.BetID)
	return err
}

// TotalWonPayout soma os payouts das apostas vencedoras de um mercado
func (r *Bets) TotalWonPayout(ctx context.Context, marketID string) (float64, error) {
	const q = `
		SELECT COALESCE(SUM(payout), 0)
		FROM bets
		WHERE market_id = $1 AND status = 'won'
	`
	var total float64
	err := r.db.QueryRowContext(ctx, q, marketID).Scan(&total)
	return total, err
}
