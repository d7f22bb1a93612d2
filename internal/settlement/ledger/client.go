package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/settlement"
	ledgerdto "github.com/leonardoReizz/proximolance-finalizar-apostas/internal/settlement/ledger/dto"
)

// Client envia resultados de apostas ao gerenciador de banca externo.
// A chamada não tem conceito de sucesso parcial: 2xx é sucesso, qualquer
// outra resposta ou erro de transporte é falha.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(base, apiKey string) *Client {
	return &Client{
		BaseURL: base,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SubmitResult envia o resultado de uma aposta. status é WON, LOST ou VOID;
// VOID (reembolso) é reportado sob o rótulo LOST com transaction de crédito.
// amount é o valor creditado (prêmio ou reembolso) e só é usado para WON/VOID.
func (c *Client) SubmitResult(ctx context.Context, bet *settlement.Bet, status string, amount float64) error {
	payload := ledgerdto.ResultRequest{Bets: []ledgerdto.BetResult{buildBetResult(bet, status, amount)}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("ledger http %d", res.StatusCode)
	}
	return nil
}

// buildBetResult monta o documento de resultado a partir da aposta original.
func buildBetResult(bet *settlement.Bet, status string, amount float64) ledgerdto.BetResult {
	r := ledgerdto.BetResult{
		AccountID:       bet.AccountID,
		Status:          status,
		BetID:           bet.BetID,
		Stake:           bet.Stake,
		Odd:             bet.Odd,
		LastUpdated:     time.Now().UTC().Format(time.RFC3339),
		PlacedDate:      bet.PlacedDate,
		AppLoginID:      bet.AppLoginID,
		SportID:         bet.SportID,
		SportName:       bet.SportName,
		CompetitionID:   bet.CompetitionID,
		CompetitionName: bet.CompetitionName,
		EventID:         bet.EventID,
		EventName:       bet.EventName,
		EventDate:       bet.EventDate,
		Handicap:        bet.Handicap,
		MarketID:        bet.MarketID,
		MarketName:      bet.MarketName,
		MarketType:      bet.MarketType,
		SelectionID:     bet.SelectionID,
		SelectionName:   bet.SelectionName,
		BetRef:          bet.BetRef,
	}

	switch {
	case status == settlement.ExternalStatusWon && amount > 0:
		r.Transaction = &ledgerdto.Transaction{
			TransactionID: newTransactionID(bet.BetID),
			Amount:        round2(amount),
		}
		r.Profit = round2(bet.Stake * (bet.Odd - 1))

	case status == settlement.ExternalStatusVoid && amount > 0:
		// Reembolso sai como LOST com crédito parcial
		r.Status = settlement.ExternalStatusLost
		r.Transaction = &ledgerdto.Transaction{
			TransactionID: newTransactionID(bet.BetID),
			Amount:        round2(amount),
		}
		r.Profit = round2(-(bet.Stake - amount))

	default:
		r.Status = settlement.ExternalStatusLost
		r.Profit = -bet.Stake
	}

	return r
}

// newTransactionID gera o id de transação no formato
// "txn_<epoch-millis>_<últimos 8 caracteres do betId>".
func newTransactionID(betID string) string {
	suffix := betID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return fmt.Sprintf("txn_%d_%s", time.Now().UnixMilli(), suffix)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
