package settlement

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// BetStore abstrai a persistência de apostas.
type BetStore interface {
	// FindConfirmedByMarkets retorna apostas com status "confirmed" dos
	// mercados informados, em ordem determinística.
	FindConfirmedByMarkets(ctx context.Context, marketIDs []string) ([]Bet, error)
	// Settle grava o estado terminal da aposta (status, payout/refund,
	// motivo, contagem de eventos, processedAt).
	Settle(ctx context.Context, out Outcome) error
	// TotalWonPayout soma os payouts das apostas "won" de um mercado.
	TotalWonPayout(ctx context.Context, marketID string) (float64, error)
}

// MarketStore abstrai a persistência de mercados.
type MarketStore interface {
	// FindProcessing retorna os ids dos mercados com status "processing".
	FindProcessing(ctx context.Context) ([]string, error)
	// GetEvents retorna a sequência ordenada de eventos dos results do
	// mercado. Mercado sem results retorna slice vazio, não é erro.
	GetEvents(ctx context.Context, marketID string) ([]GameEvent, error)
	// Complete marca o mercado como "completed" com o payout agregado.
	Complete(ctx context.Context, marketID string, totalPayout float64) error
}

// LedgerClient envia o resultado de uma aposta ao gerenciador de banca.
// status é WON, LOST ou VOID; amount é o valor creditado (WON/VOID) ou 0.
// Qualquer erro de transporte ou resposta não-2xx vira um erro uniforme.
type LedgerClient interface {
	SubmitResult(ctx context.Context, bet *Bet, status string, amount float64) error
}

// AuditTrail registra cada decisão e falha de liquidação (append-only).
type AuditTrail interface {
	Append(ctx context.Context, betID, entryType string, data map[string]any) error
}

// LimitsProvider carrega o percentual de reembolso vigente.
type LimitsProvider interface {
	RefundPercentage(ctx context.Context) (float64, error)
}

// Processor executa o ciclo de liquidação: descobre mercados em
// processamento, calcula o resultado de cada aposta confirmada, envia ao
// gerenciador de banca e só então persiste o estado terminal. Falhas são
// isoladas por aposta; o mercado só é concluído se o ciclo não teve falhas.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Processor struct {
	Log     *zap.Logger
	Bets    BetStore
	Markets MarketStore
	Limits  LimitsProvider
	Ledger  LedgerClient
	Audit   AuditTrail

	OnSettled         func(status string)           // métricas (counter por status)
	OnFailure         func(stage string)            // métricas por fase
	OnMarketCompleted func(marketID string, totalPayout float64, betsSettled int)
	OnAfterSettle     func(out Outcome, bet *Bet) // ex.: publicar bet_settled no Kafka
}

// marketGroup preserva a ordem de descoberta das apostas de um mercado.
type marketGroup struct {
	MarketID string
	Bets     []Bet
}

// ProcessPendingBets roda um ciclo completo de liquidação.
// Erros de descoberta abortam o ciclo (nada foi decidido ainda); a partir
// daí, falhas ficam restritas à aposta ou ao mercado em que ocorreram.
func (p *Processor) ProcessPendingBets(ctx context.Context) error {
	refundPct := p.loadRefundPercentage(ctx)

	marketIDs, err := p.Markets.FindProcessing(ctx)
	if err != nil {
		return fmt.Errorf("find processing markets: %w", err)
	}
	if len(marketIDs) == 0 {
		p.Log.Debug("nenhum mercado em processamento")
		return nil
	}

	bets, err := p.Bets.FindConfirmedByMarkets(ctx, marketIDs)
	if err != nil {
		return fmt.Errorf("find confirmed bets: %w", err)
	}
	if len(bets) == 0 {
		p.Log.Info("nenhuma aposta pendente para processar")
		return nil
	}

	p.Log.Info("apostas pendentes encontradas", zap.Int("bets", len(bets)), zap.Int("markets", len(marketIDs)))

	for _, group := range groupByMarket(bets) {
		p.processMarket(ctx, group, refundPct)
	}

	return nil
}

// loadRefundPercentage carrega o percentual de reembolso do ciclo.
// Best-effort: qualquer falha mantém o default, logada mas nunca aborta.
func (p *Processor) loadRefundPercentage(ctx context.Context) float64 {
	pct, err := p.Limits.RefundPercentage(ctx)
	if err != nil {
		p.Log.Warn("falha ao carregar limites, usando reembolso default",
			zap.Float64("default", DefaultRefundPercentage), zap.Error(err))
		return DefaultRefundPercentage
	}
	p.Log.Info("percentual de reembolso do ciclo", zap.Float64("pct", pct))
	return pct
}

// groupByMarket agrupa apostas por mercado preservando a ordem em que os
// mercados aparecem (iteração determinística para reprocessos e testes).
func groupByMarket(bets []Bet) []marketGroup {
	index := make(map[string]int, len(bets))
	var groups []marketGroup
	for _, b := range bets {
		i, ok := index[b.MarketID]
		if !ok {
			i = len(groups)
			index[b.MarketID] = i
			groups = append(groups, marketGroup{MarketID: b.MarketID})
		}
		groups[i].Bets = append(groups[i].Bets, b)
	}
	return groups
}

// processMarket liquida as apostas de um mercado, uma a uma, e conclui o
// mercado somente se nenhuma aposta falhou nesta tentativa.
func (p *Processor) processMarket(ctx context.Context, group marketGroup, refundPct float64) {
	log := p.Log.With(zap.String("marketId", group.MarketID))

	events, err := p.Markets.GetEvents(ctx, group.MarketID)
	if err != nil {
		// Mercado fica em processing e volta no próximo ciclo
		log.Error("falha ao carregar eventos do mercado", zap.Error(err))
		p.failure("events")
		return
	}
	log.Info("processando mercado", zap.Int("bets", len(group.Bets)), zap.Int("events", len(events)))

	failures := 0
	for i := range group.Bets {
		if err := p.settleBet(ctx, &group.Bets[i], events, refundPct); err != nil {
			log.Error("aposta não finalizada", zap.String("betId", group.Bets[i].BetID), zap.Error(err))
			failures++
		}
	}

	if failures > 0 {
		log.Warn("mercado não concluído, apostas com falha serão reprocessadas",
			zap.Int("failures", failures), zap.Int("settled", len(group.Bets)-failures))
		return
	}

	totalPayout, err := p.Bets.TotalWonPayout(ctx, group.MarketID)
	if err != nil {
		log.Error("falha ao calcular payout total", zap.Error(err))
		p.failure("complete")
		return
	}
	if err := p.Markets.Complete(ctx, group.MarketID, totalPayout); err != nil {
		log.Error("falha ao concluir mercado", zap.Error(err))
		p.failure("complete")
		return
	}

	log.Info("mercado concluído", zap.Float64("totalPayout", totalPayout), zap.Int("bets", len(group.Bets)))
	if p.OnMarketCompleted != nil {
		p.OnMarketCompleted(group.MarketID, totalPayout, len(group.Bets))
	}
}

// settleBet é a tarefa de liquidação de uma aposta: calcular, enviar ao
// gerenciador de banca e persistir. Retornar erro deixa a aposta confirmada
// no banco, elegível para nova tentativa no próximo ciclo.
func (p *Processor) settleBet(ctx context.Context, bet *Bet, events []GameEvent, refundPct float64) error {
	out := Settle(bet, events, refundPct)

	// PRIMEIRO a API externa; o banco só é tocado depois do aceite dela.
	if err := p.submitPayment(ctx, bet, out); err != nil {
		p.appendAudit(ctx, bet.BetID, LogTypeAPIError, map[string]any{
			"error":        err.Error(),
			"status":       out.Status,
			"resultReason": out.ResultReason,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		})
		p.failure("ledger")
		return fmt.Errorf("submit to ledger: %w", err)
	}

	if err := p.Bets.Settle(ctx, out); err != nil {
		p.appendAudit(ctx, bet.BetID, LogTypeProcessingError, map[string]any{
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		p.failure("persist")
		return fmt.Errorf("persist settlement: %w", err)
	}

	p.appendAudit(ctx, bet.BetID, LogTypeBetResult, map[string]any{
		"status":       out.Status,
		"resultReason": out.ResultReason,
		"eventsCount":  out.EventsCount,
		"winAmount":    out.WinAmount,
		"refundAmount": out.RefundAmount,
		"apiSuccess":   true,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})

	p.Log.Info("aposta finalizada",
		zap.String("betId", bet.BetID),
		zap.String("status", out.Status),
		zap.Float64("winAmount", out.WinAmount),
		zap.Float64("refundAmount", out.RefundAmount),
	)

	if p.OnSettled != nil {
		p.OnSettled(out.Status)
	}
	if p.OnAfterSettle != nil {
		p.OnAfterSettle(out, bet)
	}
	return nil
}

// submitPayment envia a instrução de pagamento conforme o resultado:
// WON com transaction do prêmio, VOID (reembolso) com transaction do valor
// reembolsado, ou LOST sem transaction. O registro de auditoria do pagamento
// faz parte da tarefa: se ele não puder ser gravado, a aposta conta como
// falha e volta no próximo ciclo.
func (p *Processor) submitPayment(ctx context.Context, bet *Bet, out Outcome) error {
	switch {
	case out.Status == BetStatusWon && out.WinAmount > 0:
		err := p.Ledger.SubmitResult(ctx, bet, ExternalStatusWon, out.WinAmount)
		if aerr := p.Audit.Append(ctx, bet.BetID, LogTypeBalanceCredited, map[string]any{
			"amount":    out.WinAmount,
			"reason":    "bet_win",
			"success":   err == nil,
			"apiStatus": ExternalStatusWon,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}); aerr != nil {
			return p.paymentError(ctx, bet.BetID, ExternalStatusWon, out.WinAmount, aerr)
		}
		return err

	case out.RefundAmount > 0:
		houseFee := round2(bet.Stake - out.RefundAmount)
		err := p.Ledger.SubmitResult(ctx, bet, ExternalStatusVoid, out.RefundAmount)
		if aerr := p.Audit.Append(ctx, bet.BetID, LogTypeBalanceCredited, map[string]any{
			"amount":    out.RefundAmount,
			"reason":    "bet_refund",
			"success":   err == nil,
			"apiStatus": ExternalStatusLost,
			"houseFee":  houseFee,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}); aerr != nil {
			return p.paymentError(ctx, bet.BetID, ExternalStatusVoid, out.RefundAmount, aerr)
		}
		return err

	default:
		err := p.Ledger.SubmitResult(ctx, bet, ExternalStatusLost, 0)
		if aerr := p.Audit.Append(ctx, bet.BetID, LogTypeLostRecorded, map[string]any{
			"amount":    bet.Stake,
			"success":   err == nil,
			"apiStatus": ExternalStatusLost,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}); aerr != nil {
			return p.paymentError(ctx, bet.BetID, ExternalStatusLost, 0, aerr)
		}
		return err
	}
}

// paymentError registra a falha inesperada do passo de pagamento e propaga.
func (p *Processor) paymentError(ctx context.Context, betID, apiStatus string, amount float64, err error) error {
	p.appendAudit(ctx, betID, LogTypePaymentError, map[string]any{
		"error":     err.Error(),
		"apiStatus": apiStatus,
		"amount":    amount,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	return fmt.Errorf("payment audit: %w", err)
}

// appendAudit grava um registro de auditoria best-effort.
func (p *Processor) appendAudit(ctx context.Context, betID, entryType string, data map[string]any) {
	if err := p.Audit.Append(ctx, betID, entryType, data); err != nil {
		p.Log.Warn("falha ao gravar bet_log",
			zap.String("betId", betID), zap.String("type", entryType), zap.Error(err))
	}
}

func (p *Processor) failure(stage string) {
	if p.OnFailure != nil {
		p.OnFailure(stage)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
