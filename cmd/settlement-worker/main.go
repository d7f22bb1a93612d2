package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/settlement"
	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/settlement/audit"
	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/settlement/ledger"
	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/settlement/limits"
	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/settlement/repo"
	sharedcache "github.com/leonardoReizz/proximolance-finalizar-apostas/internal/shared/cache"
	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/shared/config"
	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/shared/db"
	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/shared/kafka"
	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/shared/logger"
	"github.com/leonardoReizz/proximolance-finalizar-apostas/internal/shared/metrics"
	ev "github.com/leonardoReizz/proximolance-finalizar-apostas/pkg/contracts/events"
)

func main() {
	// .env é opcional; em produção as variáveis vêm do ambiente
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer zl.Sync()

	// Conectividade com os stores é pré-condição: falha aqui é fatal
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		zl.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		zl.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Producers Kafka para os eventos de liquidação
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	completedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMarketCompleted)
	defer completedWriter.Close()

	// Métricas Prometheus do ciclo de liquidação
	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_cycles_total", Help: "ciclos de liquidação executados"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_cycles_skipped_total", Help: "ciclos pulados por sobreposição"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_bets_settled_total", Help: "apostas liquidadas por status"}, []string{"status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_failures_total", Help: "falhas por estágio"}, []string{"stage"})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_markets_completed_total", Help: "mercados concluídos"})
	prometheus.MustRegister(cycles, skipped, settled, failures, completed)

	publish := func(w *kafka.Writer, key string, payload any) {
		b, _ := json.Marshal(payload)
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := kafka.WriteJSON(ctx, w, key, b); err != nil {
			zl.Warn("kafka publish failed", zap.String("topic", w.Topic), zap.Error(err))
		}
	}

	proc := &settlement.Processor{
		Log:     zl,
		Bets:    repo.NewBets(pg),
		Markets: repo.NewMarkets(pg),
		Limits:  limits.NewRedis(redisClient, cfg.RedisLimitsKey),
		Ledger:  ledger.New(cfg.LedgerAPIURL, cfg.LedgerAPIKey),
		Audit:   audit.NewPostgres(pg),

		OnSettled: func(status string) { settled.WithLabelValues(status).Inc() },
		OnFailure: func(stage string) { failures.WithLabelValues(stage).Inc() },

		// Após o aceite do gerenciador de banca e a persistência, notifica o
		// restante da plataforma via Kafka (best-effort)
		OnAfterSettle: func(out settlement.Outcome, bet *settlement.Bet) {
			publish(settledWriter, bet.BetID, ev.BetSettled{
				BetID:        bet.BetID,
				AccountID:    bet.AccountID,
				MarketID:     bet.MarketID,
				Status:       out.Status,
				WinAmount:    out.WinAmount,
				RefundAmount: out.RefundAmount,
				ResultReason: out.ResultReason,
				EventsCount:  out.EventsCount,
				Ts:           time.Now(),
			})
		},
		OnMarketCompleted: func(marketID string, totalPayout float64, betsSettled int) {
			completed.Inc()
			publish(completedWriter, marketID, ev.MarketCompleted{
				MarketID:    marketID,
				TotalPayout: totalPayout,
				BetsSettled: betsSettled,
				Ts:          time.Now(),
			})
		},
	}

	// Servidor HTTP para métricas Prometheus e healthcheck
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort,
		func(ctx context.Context) error { return pg.PingContext(ctx) },
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	)
	zl.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	// O ciclo roda em context.Background(): shutdown não cancela um ciclo em
	// andamento, só impede novos (estado por aposta fica no que foi persistido).
	// O guard de reentrância descarta o disparo se um ciclo ainda está ativo
	// (pula, não enfileira).
	var processing atomic.Bool
	runCycle := func() {
		if !processing.CompareAndSwap(false, true) {
			skipped.Inc()
			zl.Info("processamento já em andamento, pulando ciclo")
			return
		}
		defer processing.Store(false)

		cycles.Inc()
		if err := proc.ProcessPendingBets(context.Background()); err != nil {
			zl.Error("ciclo de processamento falhou", zap.Error(err))
		}
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.ProcessInterval), runCycle)
	if err != nil {
		zl.Fatal("cron schedule", zap.Error(err))
	}

	zl.Info("settlement-worker started",
		zap.Duration("interval", cfg.ProcessInterval),
		zap.String("ledger", cfg.LedgerAPIURL),
	)

	// Primeiro ciclo roda imediatamente, antes do timer
	runCycle()
	scheduler.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	zl.Info("shutdown signal received")
	// Stop não cancela o ciclo em andamento; espera ele terminar
	<-scheduler.Stop().Done()
	_ = metricsSrv.Close()
	zl.Info("settlement-worker stopped")
}
