package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"
)

func rp(log *zap.Logger, to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q", to)
	}
	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream unavailable", zap.String("upstream", to), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}
	return p, nil
}

// Router encaminha /api/matches/* e /ws ao match-service e /api/wallet/* ao wallet-service
func Router(log *zap.Logger, matchURL, walletURL string) (http.Handler, error) {
	match, err := rp(log, matchURL)
	if err != nil {
		return nil, err
	}
	wallet, err := rp(log, walletURL)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// partidas (ex.: /api/matches/{id}/accept -> /v1/matches/{id}/accept)
	mux.Handle("/api/matches", http.StripPrefix("/api", rewrite("/v1", match)))
	mux.Handle("/api/matches/", http.StripPrefix("/api", rewrite("/v1", match)))

	// progresso ao vivo (o proxy repassa o upgrade de WebSocket)
	mux.Handle("/ws", match)

	// wallet (ex.: /api/wallet/deposit -> /wallet/deposit)
	mux.Handle("/api/wallet", http.StripPrefix("/api", wallet))
	mux.Handle("/api/wallet/", http.StripPrefix("/api", wallet))

	return mux, nil
}

// rewrite acrescenta o prefixo de versão do serviço de destino
func rewrite(prefix string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = prefix + r.URL.Path
		if r.URL.RawPath != "" {
			r2.URL.RawPath = prefix + r.URL.RawPath
		}
		next.ServeHTTP(w, r2)
	})
}
