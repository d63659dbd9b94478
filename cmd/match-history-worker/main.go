package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-match-engine/internal/match-history/consumer"
	"github.com/radieske/wager-match-engine/internal/match-history/repository"
	"github.com/radieske/wager-match-engine/internal/shared/config"
	"github.com/radieske/wager-match-engine/internal/shared/db"
	"github.com/radieske/wager-match-engine/internal/shared/kafka"
	"github.com/radieske/wager-match-engine/internal/shared/logger"
	"github.com/radieske/wager-match-engine/internal/shared/metrics"
	"github.com/radieske/wager-match-engine/pkg/contracts/topics"
)

func main() {
	cfg, err := config.LoadService("match-history-worker")
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Consumer group próprio: o histórico lê o tópico inteiro, independente de outros leitores
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchProgress, "match-history")
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, topics.MatchProgressDLQ)
	defer dlq.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "match_history_messages_consumed_total", Help: "mensagens consumidas"})
	persisted := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "match_history_db_writes_total", Help: "escritas no banco por tipo"}, []string{"type"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "match_history_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persisted, errorsBy)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Repo:       repository.NewPostgresRepo(pg),
		DLQ:        dlq,
		OnConsumed: func() { consumed.Inc() },
		OnPersist:  func(typ string) { persisted.WithLabelValues(typ).Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, pg.PingContext)

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("match-history-worker started", zap.String("consume", cfg.TopicMatchProgress))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("match-history-worker stopped")
}
