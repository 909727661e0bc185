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
	"golang.org/x/sync/errgroup"

	"github.com/dmryasin/compval/internal/model"
	"github.com/dmryasin/compval/internal/store"
	"github.com/dmryasin/compval/internal/valuation"
)

var servePort int

// appraiser is what the HTTP layer needs from the valuation engine.
type appraiser interface {
	Appraise(ctx context.Context, subject model.Subject, sources []string, progress valuation.Progress) (*model.AppraisalResult, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the appraisal HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, _, err := initEngine()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, engine),
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func newRouter(st store.Store, engine appraiser) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/appraise", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Subject model.Subject `json:"subject"`
			Sources []string      `json:"sources"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(body.Sources) == 0 {
			writeError(w, http.StatusBadRequest, "sources are required")
			return
		}
		if body.Subject == nil {
			body.Subject = model.Subject{}
		}

		run, err := st.CreateRun(req.Context(), body.Subject, body.Sources)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// The batch outlives the request; the run record carries the result.
		go runAppraisal(st, engine, run)

		writeJSON(w, http.StatusAccepted, map[string]string{
			"run_id": run.ID,
			"status": string(model.RunStatusQueued),
		})
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		filter := store.RunFilter{
			Status: model.RunStatus(req.URL.Query().Get("status")),
		}
		runs, err := st.ListRuns(req.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	r.Get("/runs/{id}/comparables", func(w http.ResponseWriter, req *http.Request) {
		comps, err := st.RunComparables(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if comps == nil {
			comps = []model.Comparable{}
		}
		writeJSON(w, http.StatusOK, comps)
	})

	return r
}

// runAppraisal drives one background batch and records its outcome.
func runAppraisal(st store.Store, engine appraiser, run *model.Run) {
	ctx := context.Background()

	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		zap.L().Error("could not mark run running", zap.String("run_id", run.ID), zap.Error(err))
		return
	}

	result, err := engine.Appraise(ctx, run.Subject, run.Sources, nil)
	if err != nil {
		zap.L().Error("appraisal failed", zap.String("run_id", run.ID), zap.Error(err))
		if failErr := st.FailRun(ctx, run.ID, err.Error()); failErr != nil {
			zap.L().Error("could not record run failure", zap.String("run_id", run.ID), zap.Error(failErr))
		}
		return
	}

	if err := st.CompleteRun(ctx, run.ID, result); err != nil {
		zap.L().Error("could not store run result", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	zap.L().Info("appraisal complete",
		zap.String("run_id", run.ID),
		zap.Int("used", result.Estimate.UsedComparables),
		zap.Int("total", result.Estimate.TotalComparables),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
