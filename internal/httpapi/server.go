// Package httpapi exposes the position and transfer flows over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/krazyTry/lpbot/internal/auth"
	"github.com/krazyTry/lpbot/internal/observability"
	"github.com/krazyTry/lpbot/internal/pipeline"
	"github.com/krazyTry/lpbot/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	maxBodyBytes     = 1 << 16
)

// Flows is the pipeline surface the handlers drive.
type Flows interface {
	Identify(ctx context.Context, creds auth.Credentials) (*auth.Identity, error)
	OpenPosition(ctx context.Context, req pipeline.PositionRequest) (*pipeline.PositionResult, error)
	Transfer(ctx context.Context, creds auth.Credentials) (*pipeline.TransferResult, error)
	TransferEnabled() bool
	ListPositions(ctx context.Context, creds auth.Credentials, limit int) ([]*store.Position, error)
}

var _ Flows = (*pipeline.Pipeline)(nil)

type Server struct {
	flows       Flows
	metrics     *observability.Metrics
	logger      *zap.Logger
	corsOrigins []string
	router      *mux.Router
}

type Option func(*Server)

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCORSOrigins allows browser calls, with credentials, from origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

func NewServer(flows Flows, opts ...Option) *Server {
	s := &Server{
		flows:  flows,
		logger: zap.NewNop(),
	}
	for _, fn := range opts {
		fn(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.instrument)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/verify", s.handleVerify).Methods(http.MethodPost)
	api.HandleFunc("/positions", s.handlePositions).Methods(http.MethodGet)
	if s.flows.TransferEnabled() {
		api.HandleFunc("/transfer", s.handleTransfer).Methods(http.MethodPost)
	}

	// mux skips r.Use middleware when no route matches.
	r.NotFoundHandler = s.requestID(s.instrument(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Code: "NotFound"})
	})))
	r.MethodNotAllowedHandler = s.requestID(s.instrument(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", Code: "MethodNotAllowed"})
	})))
	return r
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	if len(s.corsOrigins) == 0 {
		return s.router
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	}).Handler(s.router)
}
