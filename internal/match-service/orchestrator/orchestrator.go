// Package orchestrator conduz cada partida apostada: desafio, aceite, escrow,
// simulação, exibição dos lances e liquidação. Cada partida roda numa goroutine
// própria; depois do escrow a liquidação é garantida.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/wager-match-engine/internal/match-service/escrow"
	"github.com/radieske/wager-match-engine/internal/match-service/power"
	"github.com/radieske/wager-match-engine/internal/match-service/roster"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
	"github.com/radieske/wager-match-engine/internal/shared/logger"
)

type Options struct {
	ChallengeTimeout time.Duration
	PlaybackDuration time.Duration
	NotifyBuffer     int
	NotifyTimeout    time.Duration
	TierBonus        []int

	// Seed e NewRand definem a aleatoriedade de cada partida
	Seed    func() (uint64, error)
	NewRand func(seed uint64) sim.Rand
}

func DefaultOptions() Options {
	return Options{
		ChallengeTimeout: 60 * time.Second,
		PlaybackDuration: 30 * time.Minute,
		NotifyBuffer:     64,
		NotifyTimeout:    2 * time.Second,
	}
}

// Hooks são callbacks opcionais (métricas, cache) ligados no main
type Hooks struct {
	OnCreated     func(s Snapshot)
	OnRejected    func(reason string)
	OnTerminal    func(s Snapshot)
	OnSettled     func(outcome sim.Outcome, pot int64)
	OnNotifyError func(stage string)
}

type Orchestrator struct {
	log      *zap.Logger
	rosters  roster.Provider
	escrow   *escrow.Escrow
	settler  *escrow.Settler
	notifier Notifier
	calc     *power.Calculator
	opts     Options
	Hooks    Hooks

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*session
}

func New(log *zap.Logger, rosters roster.Provider, esc *escrow.Escrow, settler *escrow.Settler, notifier Notifier, opts Options) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.ChallengeTimeout <= 0 {
		opts.ChallengeTimeout = def.ChallengeTimeout
	}
	if opts.PlaybackDuration <= 0 {
		opts.PlaybackDuration = def.PlaybackDuration
	}
	if opts.NotifyBuffer <= 0 {
		opts.NotifyBuffer = def.NotifyBuffer
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = def.NotifyTimeout
	}
	if opts.Seed == nil {
		opts.Seed = sim.NewSeed
	}
	if opts.NewRand == nil {
		opts.NewRand = func(seed uint64) sim.Rand { return sim.NewRand(seed) }
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		log:      log,
		rosters:  rosters,
		escrow:   esc,
		settler:  settler,
		notifier: notifier,
		calc:     power.NewCalculator(opts.TierBonus...),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
}

// Challenge valida tudo o que dá para validar sem tocar em carteira e registra a partida
func (o *Orchestrator) Challenge(ctx context.Context, req ChallengeRequest) (Snapshot, error) {
	snap, err := o.challenge(ctx, req)
	if err != nil {
		if o.Hooks.OnRejected != nil {
			o.Hooks.OnRejected(rejectReason(err))
		}
		o.log.Info("challenge rejected", zap.String("home", req.Home), zap.String("away", req.Away),
			zap.Int64("stake", req.Stake), zap.Error(err))
		return Snapshot{}, err
	}
	return snap, nil
}

func (o *Orchestrator) challenge(ctx context.Context, req ChallengeRequest) (Snapshot, error) {
	if o.ctx.Err() != nil {
		return Snapshot{}, ErrShuttingDown
	}
	if req.Home == req.Away {
		return Snapshot{}, ErrSelfChallenge
	}
	home, err := o.competitor(ctx, req.Home, sim.Home)
	if err != nil {
		return Snapshot{}, err
	}
	away, err := o.competitor(ctx, req.Away, sim.Away)
	if err != nil {
		return Snapshot{}, err
	}
	if err := o.escrow.Validate(ctx, req.Home, req.Away, req.Stake); err != nil {
		return Snapshot{}, err
	}

	now := time.Now()
	id := uuid.NewString()
	log := logger.ForSession(o.log, id)
	s := &session{
		id:        id,
		home:      home,
		away:      away,
		stake:     req.Stake,
		createdAt: now,
		updatedAt: now,
		log:       log,
		decisions: make(chan decision, 1),
		out:       newEmitter(o.notifier, log, o.opts.NotifyBuffer, o.opts.NotifyTimeout, o.Hooks.OnNotifyError),
		state:     StateProposed,
	}

	// registro e wg.Add sob o mesmo lock que Shutdown usa para cancelar
	o.mu.Lock()
	if o.ctx.Err() != nil {
		o.mu.Unlock()
		s.out.close()
		return Snapshot{}, ErrShuttingDown
	}
	o.sessions[id] = s
	o.wg.Add(1)
	o.mu.Unlock()

	snap := s.snapshot()
	log.Info("challenge created", zap.String("home", home.ID), zap.String("away", away.ID), zap.Int64("stake", req.Stake))
	if o.Hooks.OnCreated != nil {
		o.Hooks.OnCreated(snap)
	}

	go o.run(s)
	return snap, nil
}

func (o *Orchestrator) competitor(ctx context.Context, id string, side sim.Side) (Competitor, error) {
	sq, err := o.rosters.GetLineup(ctx, id)
	if err != nil {
		return Competitor{}, fmt.Errorf("%s lineup %s: %w", side, id, err)
	}
	p, err := o.calc.Calculate(sq.Lineup, sq.TrainingLevel)
	if err != nil {
		return Competitor{}, fmt.Errorf("%s lineup %s: %w", side, id, err)
	}
	return Competitor{ID: id, Club: sq.ClubName, Profile: p}, nil
}

// Accept só pode vir do desafiado
func (o *Orchestrator) Accept(_ context.Context, id, by string) (Snapshot, error) {
	s, err := o.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if by != s.away.ID {
		return Snapshot{}, ErrNotParticipant
	}
	return s.answer(decision{accept: true, by: by})
}

// Decline vale para qualquer um dos dois lados
func (o *Orchestrator) Decline(_ context.Context, id, by string) (Snapshot, error) {
	s, err := o.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if by != s.home.ID && by != s.away.ID {
		return Snapshot{}, ErrNotParticipant
	}
	return s.answer(decision{accept: false, by: by})
}

func (o *Orchestrator) lookup(id string) (*session, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Get devolve partidas ainda não encerradas
func (o *Orchestrator) Get(id string) (Snapshot, bool) {
	s, err := o.lookup(id)
	if err != nil {
		return Snapshot{}, false
	}
	return s.snapshot(), true
}

// Active lista as partidas em andamento, das mais antigas para as mais novas
func (o *Orchestrator) Active() []Snapshot {
	o.mu.RLock()
	out := make([]Snapshot, 0, len(o.sessions))
	for _, s := range o.sessions {
		out = append(out, s.snapshot())
	}
	o.mu.RUnlock()

	slices.SortFunc(out, func(a, b Snapshot) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

// Wait bloqueia até todas as partidas terminarem
func (o *Orchestrator) Wait() { o.wg.Wait() }

// Shutdown cancela desafios pendentes, encurta as exibições e liquida o que
// estiver em jogo; espera até ctx expirar
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.cancel()
	o.mu.Unlock()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrShuttingDown):
		return "shutting_down"
	case errors.Is(err, ErrSelfChallenge):
		return "self_challenge"
	case errors.Is(err, roster.ErrNotFound):
		return "not_found"
	case errors.Is(err, power.ErrIncompleteLineup):
		return "incomplete_lineup"
	case errors.Is(err, escrow.ErrInvalidStake):
		return "invalid_stake"
	case errors.Is(err, escrow.ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "other"
	}
}
