package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cusdScope/internal/tx"
)

// Config wires the HTTP surface.
type Config struct {
	State State
	// Archive, when set, answers account activity with full history.
	Archive Archive
	Builder *tx.Builder
	Relayer Relayer
	// NodeURL is the JSON-RPC endpoint behind /api/rpc.
	NodeURL      string
	Network      tx.Network
	ProxyTimeout time.Duration
	CORS         CORSConfig
	Logger       *zap.Logger
	Now          func() time.Time
}

// New builds the router.
func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	h := &handlers{
		state:     cfg.State,
		archive:   cfg.Archive,
		builder:   cfg.Builder,
		relayer:   cfg.Relayer,
		network:   cfg.Network,
		logger:    logger,
		now:       now,
	}

	r := chi.NewRouter()
	r.Use(CORS(cfg.CORS))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		if cfg.NodeURL != "" {
			api.Post("/rpc", newRPCProxy(cfg.NodeURL, cfg.ProxyTimeout, logger).ServeHTTP)
		}
		if cfg.State != nil {
			api.Get("/system", h.system)
			api.Get("/params", h.params)
			api.Get("/price", h.price)
			api.Get("/paused", h.paused)
			api.Get("/supply", h.supply)
			api.Get("/events", h.events)
			api.Get("/liquidations/stats", h.liquidationStats)
			api.Get("/liquidations/candidates", h.candidates)
			api.Get("/vaults/{owner}", h.vault)
			api.Get("/accounts/{owner}/activity", h.activity)
			api.Get("/accounts/{owner}/balance", h.balance)
		}
		if cfg.Builder != nil {
			api.Post("/pay/prepare", h.preparePayment)
			api.Post("/tx/prepare", h.prepareTx)
		}
		if cfg.Relayer != nil {
			api.Post("/pay/submit", h.submit)
		}
	})
	return r
}
