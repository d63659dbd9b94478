package metrics

import "github.com/prometheus/client_golang/prometheus"

// Match agrupa as métricas do ciclo de vida das partidas
type Match struct {
	Sessions      *prometheus.CounterVec // por estado terminal
	Active        prometheus.Gauge
	Settlements   *prometheus.CounterVec // por resultado
	PotCents      prometheus.Counter
	NotifyErrors  *prometheus.CounterVec // por estágio
	ChallengeErrs *prometheus.CounterVec // por motivo
}

// NewMatch cria e registra as métricas de partida no registerer informado
func NewMatch(reg prometheus.Registerer) *Match {
	m := &Match{
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "match_sessions_total",
			Help: "partidas encerradas por estado terminal",
		}, []string{"state"}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "match_sessions_active",
			Help: "partidas em andamento",
		}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "match_settlements_total",
			Help: "liquidações por resultado",
		}, []string{"outcome"}),
		PotCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "match_pot_cents_total",
			Help: "soma dos potes liquidados",
		}),
		NotifyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "match_notify_errors_total",
			Help: "falhas de notificação por estágio",
		}, []string{"stage"}),
		ChallengeErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "match_challenge_rejected_total",
			Help: "desafios recusados na validação",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.Sessions, m.Active, m.Settlements, m.PotCents, m.NotifyErrors, m.ChallengeErrs)
	return m
}
