package orchestrator

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wager-match-engine/internal/match-service/escrow"
	"github.com/radieske/wager-match-engine/internal/match-service/sim"
)

// run é a vida inteira de uma partida
func (o *Orchestrator) run(s *session) {
	defer o.wg.Done()
	defer o.finish(s)

	if !o.awaitAnswer(s) {
		return
	}

	// mesma checagem do simulador, antes de qualquer débito
	if err := sim.CheckProfiles(s.home.Profile, s.away.Profile); err != nil {
		s.log.Error("simulator rejected profiles", zap.Error(err))
		s.fail(StateCancelled, err.Error())
		return
	}

	ticket, err := o.escrow.Hold(o.ctx, s.id, s.home.ID, s.away.ID, s.stake)
	if err != nil {
		s.log.Warn("escrow failed", zap.Error(err))
		s.fail(StateEscrowFailed, err.Error())
		return
	}
	s.setState(StateEscrowed)

	o.play(s, ticket)
}

// awaitAnswer espera aceite, recusa, timeout ou shutdown; true só no aceite
func (o *Orchestrator) awaitAnswer(s *session) bool {
	timer := time.NewTimer(o.opts.ChallengeTimeout)
	defer timer.Stop()

	var d decision
	select {
	case d = <-s.decisions:
	case <-timer.C:
		if s.expire("challenge timed out") {
			return false
		}
		d = <-s.decisions
	case <-o.ctx.Done():
		if s.expire("service shutting down") {
			return false
		}
		d = <-s.decisions
	}
	return d.accept
}

// play simula uma vez e exibe os lances; a liquidação roda no defer em qualquer saída
func (o *Orchestrator) play(s *session, ticket *escrow.Ticket) {
	var res sim.Result
	outcome := sim.OutcomeDraw

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("playback panic", zap.Any("panic", r))
		}
		o.settle(s, ticket, res.Final, outcome)
	}()

	s.setState(StateSimulating)
	res, err := o.simulate(s)
	if err != nil {
		// resultado desconhecido: devolve a aposta de cada um
		s.log.Error("simulation failed after escrow, refunding", zap.Error(err))
		s.setReason(err.Error())
		res = sim.Result{}
		return
	}
	outcome = res.Outcome

	started := s.setState(StatePlaying)
	s.out.started(started)

	begin := time.Now()
	for _, ev := range res.Timeline {
		if !o.sleepUntil(begin.Add(o.offset(ev.OffsetSeconds))) {
			s.log.Info("shutdown during playback, settling now", zap.Int("minute", ev.Minute))
			return
		}
		s.out.event(s.show(ev), ev)
	}
	o.sleepUntil(begin.Add(o.opts.PlaybackDuration))
}

func (o *Orchestrator) simulate(s *session) (sim.Result, error) {
	seed, err := o.opts.Seed()
	if err != nil {
		return sim.Result{}, fmt.Errorf("%w: %v", sim.ErrInternalSimulation, err)
	}
	s.mu.Lock()
	s.seed = seed
	s.mu.Unlock()

	res, err := sim.SafeSimulate(s.home.Profile, s.away.Profile, o.opts.NewRand(seed))
	if err != nil {
		return sim.Result{}, err
	}
	s.log.Info("match simulated", zap.Uint64("seed", seed), zap.Int("events", len(res.Timeline)),
		zap.Int("home", res.Final.Home), zap.Int("away", res.Final.Away), zap.String("outcome", string(res.Outcome)))
	return res, nil
}

// offset escala o relógio de 90 da partida para a duração da exibição
func (o *Orchestrator) offset(minute int) time.Duration {
	return o.opts.PlaybackDuration * time.Duration(minute) / sim.MatchClock
}

// sleepUntil dorme o que falta até t; false se o serviço está encerrando
func (o *Orchestrator) sleepUntil(t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return o.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-o.ctx.Done():
		return false
	}
}

func (o *Orchestrator) settle(s *session, ticket *escrow.Ticket, final sim.Score, outcome sim.Outcome) {
	pay, err := o.settler.Settle(o.ctx, ticket, outcome)
	if err != nil {
		s.log.Error("settlement failed, manual reconciliation required",
			zap.Int64("pot", ticket.Pot()), zap.String("outcome", string(outcome)), zap.Error(err))
		s.fail(StateSettled, err.Error())
		return
	}

	snap := s.settled(final, outcome, pay)
	s.log.Info("match settled", zap.String("outcome", string(outcome)),
		zap.Int64("home_payout", pay.Home), zap.Int64("away_payout", pay.Away))
	if o.Hooks.OnSettled != nil {
		o.Hooks.OnSettled(outcome, ticket.Pot())
	}
	s.out.ended(snap)
}

// finish avisa os hooks (cache do snapshot) antes de tirar a partida do registro,
// depois esvazia as notificações com prazo
func (o *Orchestrator) finish(s *session) {
	snap := s.snapshot()
	if !snap.State.Terminal() {
		s.log.Error("match left in non-terminal state", zap.String("state", string(snap.State)))
	}
	if o.Hooks.OnTerminal != nil {
		o.Hooks.OnTerminal(snap)
	}

	o.mu.Lock()
	delete(o.sessions, s.id)
	o.mu.Unlock()

	s.out.close()
}
