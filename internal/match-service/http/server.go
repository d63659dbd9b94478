package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/wager-match-engine/internal/match-service/dto"
	"github.com/radieske/wager-match-engine/internal/match-service/escrow"
	"github.com/radieske/wager-match-engine/internal/match-service/orchestrator"
	"github.com/radieske/wager-match-engine/internal/match-service/power"
	"github.com/radieske/wager-match-engine/internal/match-service/roster"
)

// Engine é o orquestrador visto pela API
type Engine interface {
	Challenge(ctx context.Context, req orchestrator.ChallengeRequest) (orchestrator.Snapshot, error)
	Accept(ctx context.Context, id, by string) (orchestrator.Snapshot, error)
	Decline(ctx context.Context, id, by string) (orchestrator.Snapshot, error)
	Get(id string) (orchestrator.Snapshot, bool)
	Active() []orchestrator.Snapshot
}

// Snapshots guarda partidas encerradas (Redis)
type Snapshots interface {
	LoadSnapshot(ctx context.Context, id string) (orchestrator.Snapshot, bool, error)
}

// API expõe os comandos de partida; a regra fica toda no orquestrador
type API struct {
	Log       *zap.Logger
	Engine    Engine
	Snapshots Snapshots    // opcional
	WS        http.Handler // opcional, montado em /ws
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/v1/matches", a.challenge)            // cria desafio
	r.Get("/v1/matches", a.listActive)            // partidas em andamento
	r.Get("/v1/matches/{id}", a.getMatch)         // ao vivo ou encerrada
	r.Post("/v1/matches/{id}/accept", a.accept)   // só o desafiado
	r.Post("/v1/matches/{id}/decline", a.decline) // qualquer lado
	if a.WS != nil {
		r.Handle("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

func (a *API) challenge(w http.ResponseWriter, r *http.Request) {
	var req dto.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.HomeID == "" || req.AwayID == "" {
		writeError(w, http.StatusBadRequest, "home_id and away_id are required")
		return
	}
	snap, err := a.Engine.Challenge(r.Context(), orchestrator.ChallengeRequest{
		Home: req.HomeID, Away: req.AwayID, Stake: req.StakeCents,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (a *API) accept(w http.ResponseWriter, r *http.Request) {
	a.answer(w, r, a.Engine.Accept)
}

func (a *API) decline(w http.ResponseWriter, r *http.Request) {
	a.answer(w, r, a.Engine.Decline)
}

func (a *API) answer(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, string) (orchestrator.Snapshot, error)) {
	var req dto.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CompetitorID == "" {
		writeError(w, http.StatusBadRequest, "competitor_id required")
		return
	}
	snap, err := fn(r.Context(), chi.URLParam(r, "id"), req.CompetitorID)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) listActive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Engine.Active())
}

// getMatch procura na memória e, se a partida já acabou, no cache
func (a *API) getMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if snap, ok := a.Engine.Get(id); ok {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	if a.Snapshots != nil {
		snap, ok, err := a.Snapshots.LoadSnapshot(r.Context(), id)
		if err != nil {
			a.Log.Warn("snapshot lookup", zap.String("session_id", id), zap.Error(err))
		}
		if ok {
			writeJSON(w, http.StatusOK, snap)
			return
		}
	}
	writeError(w, http.StatusNotFound, orchestrator.ErrSessionNotFound.Error())
}

// fail traduz os erros de domínio em status HTTP
func (a *API) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, orchestrator.ErrSelfChallenge),
		errors.Is(err, escrow.ErrInvalidStake):
		status = http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrNotParticipant):
		status = http.StatusForbidden
	case errors.Is(err, orchestrator.ErrSessionNotFound),
		errors.Is(err, roster.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, orchestrator.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, power.ErrIncompleteLineup),
		errors.Is(err, escrow.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, orchestrator.ErrShuttingDown):
		status = http.StatusServiceUnavailable
	default:
		a.Log.Error("match api", zap.Error(err))
	}
	writeError(w, status, err.Error())
}
