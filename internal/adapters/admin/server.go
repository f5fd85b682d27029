package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/NoMercy-Entertainment/NoMercy-Bot-sub000/internal/core/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Commands interface {
	List() []domain.ChatCommand
	AddOrUpdatePersisted(ctx context.Context, name, response string, permission domain.Role,
		commandType domain.CommandType, enabled bool, description string) (domain.ChatCommand, error)
	RemovePersisted(ctx context.Context, name string) (bool, error)
}

type Rewards interface {
	List() []domain.TwitchReward
	AddOrUpdatePersisted(ctx context.Context, id, title, response string, permission domain.Role,
		enabled bool, description string) (domain.TwitchReward, error)
	RemovePersisted(ctx context.Context, key domain.RewardKey) (bool, error)
}

type Redemptions interface {
	HandleRedemption(ctx context.Context, redemption domain.Redemption)
}

// Server exposes registry management, metrics and the overlay websocket.
type Server struct {
	commands    Commands
	rewards     Rewards
	redemptions Redemptions
	overlay     http.Handler
	gatherer    prometheus.Gatherer
	// redemptionCtx outlives the request that delivered a redemption.
	redemptionCtx context.Context
	l             *zerolog.Logger
}

type ServerParams struct {
	Commands    Commands
	Rewards     Rewards
	Redemptions Redemptions
	Overlay     http.Handler
	Gatherer    prometheus.Gatherer
	// Context is the lifetime of asynchronously handled redemptions.
	Context context.Context
}

func NewServer(p ServerParams) *Server {
	logger := log.With().Str("component", "admin").Logger()

	ctx := p.Context
	if ctx == nil {
		ctx = context.Background()
	}

	return &Server{
		commands:      p.Commands,
		rewards:       p.Rewards,
		redemptions:   p.Redemptions,
		overlay:       p.Overlay,
		gatherer:      p.Gatherer,
		redemptionCtx: ctx,
		l:             &logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.overlay != nil {
		r.Get("/ws/overlay", s.overlay.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Use(middleware.Timeout(15 * time.Second))

		r.Get("/commands", s.listCommands)
		r.Put("/commands/{name}", s.putCommand)
		r.Delete("/commands/{name}", s.deleteCommand)

		r.Get("/rewards", s.listRewards)
		r.Put("/rewards/{key}", s.putReward)
		r.Delete("/rewards/{key}", s.deleteReward)

		if s.redemptions != nil {
			r.Post("/redemptions", s.postRedemption)
		}
	})

	return r
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.l.Warn().Err(err).Msg("admin server shutdown")
		}
	}()

	s.l.Info().Str("addr", addr).Msg("admin server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.l.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("admin request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
