package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/service/command"
	"github.com/sandevgo/tusk/pkg/log"
)

const (
	requestIDHeader = "X-Request-Id"
	maxBodyBytes    = 1 << 20
)

type Options struct {
	Addr       string
	EntryRoute string
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

// Server exposes the dispatcher over HTTP.
type Server struct {
	dispatcher core.Dispatcher
	opts       Options
	srv        *http.Server
}

func New(dispatcher core.Dispatcher, opts Options) *Server {
	if opts.EntryRoute == "" {
		opts.EntryRoute = "/callback"
	}
	if !strings.HasPrefix(opts.EntryRoute, "/") {
		opts.EntryRoute = "/" + opts.EntryRoute
	}

	s := &Server{
		dispatcher: dispatcher,
		opts:       opts,
	}
	s.srv = &http.Server{
		Addr:              opts.Addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

type callbackRequest struct {
	UserID    string `json:"user_id"`
	UserInput string `json:"user_input"`
}

type callbackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Router builds the handler tree. baseCtx carries the logger every request
// inherits.
func (s *Server) Router(baseCtx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(withBaseLogger(baseCtx))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	r.Post(s.opts.EntryRoute, s.handleCallback)

	return r
}

func (s *Server) Start(ctx context.Context) error {
	s.srv.Handler = s.Router(ctx)
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	log.FromCtx(ctx).Info().Str("addr", s.opts.Addr).Str("route", s.opts.EntryRoute).Msg("starting http server")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	logger := log.FromCtx(r.Context())

	var req callbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Debug().Err(err).Msg("rejected callback body")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// A well-formed body without a user still gets a 200 with an error
	// reply, like any other failure behind the dispatcher.
	if strings.TrimSpace(req.UserID) == "" {
		reply := command.ErrorReply(fmt.Errorf("%w: user_id is required", core.ErrEncoding))
		respondJSON(w, http.StatusOK, callbackResponse{Status: "success", Message: reply})
		return
	}

	reply := s.dispatcher.Handle(r.Context(), req.UserID, req.UserInput)
	respondJSON(w, http.StatusOK, callbackResponse{Status: "success", Message: reply})
}

// withBaseLogger attaches the base logger and a request id to each request.
func withBaseLogger(baseCtx context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			ctx := log.FromCtx(baseCtx).WithContext(r.Context())
			ctx = log.WithStr(ctx, "request_id", id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, callbackResponse{Status: "error", Message: message})
}
