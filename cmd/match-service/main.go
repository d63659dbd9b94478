package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wager-match-engine/internal/match-service/escrow"
	httpapi "github.com/radieske/wager-match-engine/internal/match-service/http"
	"github.com/radieske/wager-match-engine/internal/match-service/notify"
	"github.com/radieske/wager-match-engine/internal/match-service/orchestrator"
	"github.com/radieske/wager-match-engine/internal/match-service/roster"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
	"github.com/radieske/wager-match-engine/internal/match-service/ws"
	"github.com/radieske/wager-match-engine/internal/shared/cache"
	"github.com/radieske/wager-match-engine/internal/shared/config"
	"github.com/radieske/wager-match-engine/internal/shared/db"
	"github.com/radieske/wager-match-engine/internal/shared/kafka"
	"github.com/radieske/wager-match-engine/internal/shared/logger"
	"github.com/radieske/wager-match-engine/internal/shared/metrics"
	wrepo "github.com/radieske/wager-match-engine/internal/wallet-service/repo"
)

func main() {
	cfg, err := config.LoadService("match-service")
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env),
		zap.Int64("min_stake", cfg.MinStake), zap.Duration("playback", cfg.PlaybackDuration))

	// Postgres: carteiras (mesmas linhas travadas pelo wallet-service) e escalações
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Kafka: progresso das partidas, chave = id da partida
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchProgress)
	defer writer.Close()
	log.Info("kafka writer ready", zap.String("topic", cfg.TopicMatchProgress))

	wallets := wrepo.NewPostgres(pg)
	rdb := notify.NewRedis(redisClient, cfg.RedisPubSubChannel, cfg.SnapshotTTL)
	notifier := notify.Multi{notify.NewLog(log), notify.NewKafka(writer), rdb}

	m := metrics.NewMatch(prometheus.DefaultRegisterer)

	orch := orchestrator.New(log,
		roster.NewPostgres(pg),
		escrow.New(wallets, cfg.MinStake),
		escrow.NewSettler(wallets, log),
		notifier,
		orchestrator.Options{
			ChallengeTimeout: cfg.ChallengeTimeout,
			PlaybackDuration: cfg.PlaybackDuration,
			NotifyBuffer:     cfg.NotifyBuffer,
			NotifyTimeout:    cfg.NotifyTimeout,
		})
	orch.Hooks = orchestrator.Hooks{
		OnCreated:  func(orchestrator.Snapshot) { m.Active.Inc() },
		OnRejected: func(reason string) { m.ChallengeErrs.WithLabelValues(reason).Inc() },
		OnTerminal: func(s orchestrator.Snapshot) {
			m.Active.Dec()
			m.Sessions.WithLabelValues(string(s.State)).Inc()

			// partida sai da memória; a visão final fica no Redis para o GET
			ctx, cancel := context.WithTimeout(context.Background(), cfg.NotifyTimeout)
			defer cancel()
			if err := rdb.SaveSnapshot(ctx, s); err != nil {
				log.Warn("snapshot cache failed", zap.String("session_id", s.ID), zap.Error(err))
			}
		},
		OnSettled: func(outcome sim.Outcome, pot int64) {
			m.Settlements.WithLabelValues(string(outcome)).Inc()
			m.PotCents.Add(float64(pot))
		},
		OnNotifyError: func(stage string) { m.NotifyErrors.WithLabelValues(stage).Inc() },
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// WebSocket: lances ao vivo via Redis Pub/Sub (qualquer réplica publica, todas entregam)
	hub := ws.NewHub(log, func(*http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, log, redisClient, cfg.RedisPubSubChannel, hub)

	api := &httpapi.API{Log: log, Engine: orch, Snapshots: rdb, WS: http.HandlerFunc(hub.HandleWS)}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort, // ex: 8084
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort,
		pg.PingContext,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	)

	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", zap.Int("active_matches", len(orch.Active())))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)

	// partidas em jogo são liquidadas antes de sair; desafios pendentes são cancelados
	if err := orch.Shutdown(shutdownCtx); err != nil {
		log.Error("matches still running at exit", zap.Error(err))
	}
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("match-service stopped")
}
