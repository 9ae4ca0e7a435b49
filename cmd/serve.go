package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kmrl-ops/induction-cli/internal/fleet"
	"github.com/kmrl-ops/induction-cli/internal/ledger"
	"github.com/kmrl-ops/induction-cli/internal/model"
	"github.com/kmrl-ops/induction-cli/internal/planner"
	"github.com/kmrl-ops/induction-cli/internal/sim"
)

var (
	servePort      int
	serveFleetPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Long:  "Exposes fleet state, plan generation, what-if simulation, and the history ledger over HTTP for the operations dashboard.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		l, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer l.Close() //nolint:errcheck

		api := &apiServer{
			provider: fleet.NewFile(serveFleetPath),
			engine:   buildEngine(),
			ledger:   l,
			simLimit: rate.NewLimiter(rate.Limit(cfg.Server.SimulateRPS), cfg.Server.SimulateBurst),
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

type apiServer struct {
	provider fleet.Provider
	engine   *planner.Engine
	ledger   ledger.Ledger
	simLimit *rate.Limiter
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/fleet", s.handleFleet)
		r.Get("/fleet/kpi", s.handleKPI)
		r.Post("/plan", s.handlePlan)
		r.Post("/simulate", s.handleSimulate)
		r.Post("/history", s.handleRecord)
		r.Get("/history", s.handleHistory)
	})
	return r
}

func (s *apiServer) handleFleet(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.provider.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *apiServer) handleKPI(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.provider.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ComputeKPIs(snapshot))
}

func (s *apiServer) handlePlan(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.provider.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	plan, err := s.engine.GeneratePlan(r.Context(), snapshot, cfg.Planner.Defaults)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *apiServer) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if !s.simLimit.Allow() {
		http.Error(w, `{"error":"simulation rate limit exceeded"}`, http.StatusTooManyRequests)
		return
	}

	simCfg := cfg.Planner.Defaults
	if err := json.NewDecoder(r.Body).Decode(&simCfg); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	snapshot, err := s.provider.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	baseline, err := s.engine.GeneratePlan(r.Context(), snapshot, cfg.Planner.Defaults)
	if err != nil {
		writeError(w, err)
		return
	}
	plan, delta, err := sim.NewDriver(s.engine).Run(r.Context(), snapshot, baseline, simCfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Plan  *model.InductionPlan `json:"plan"`
		Delta *model.Delta         `json:"delta"`
	}{plan, delta})
}

func (s *apiServer) handleRecord(w http.ResponseWriter, r *http.Request) {
	var entry model.HistoryEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := s.ledger.Record(r.Context(), entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": entry.ID})
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var entries []model.HistoryEntry
	var err error

	if trainset := r.URL.Query().Get("trainset"); trainset != "" {
		entries, err = ledger.Collect(s.ledger.QueryByTrainset(ctx, trainset))
	} else {
		from, to, perr := parseDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if perr != nil {
			http.Error(w, `{"error":"invalid date range"}`, http.StatusBadRequest)
			return
		}
		entries, err = ledger.Collect(s.ledger.QueryByDateRange(ctx, from, to))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError maps the scheduler's error taxonomy onto HTTP statuses: bad
// fleet data and infeasible capacity are the client's planning problem (422),
// a duplicate ledger append is a conflict (409), the rest is a 500.
func writeError(w http.ResponseWriter, err error) {
	var mfd *planner.MissingFleetDataError
	var cie *planner.CapacityInfeasibleError
	var dup *ledger.DuplicateEntryError

	status := http.StatusInternalServerError
	switch {
	case eris.As(err, &mfd), eris.As(err, &cie):
		status = http.StatusUnprocessableEntity
	case eris.As(err, &dup):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveFleetPath, "fleet", "fleet.yaml", "fleet snapshot file")
	rootCmd.AddCommand(serveCmd)
}
