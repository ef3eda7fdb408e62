package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var datePattern = regexp.MustCompile(`^\d{8}$`)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an HTTP endpoint that triggers harvests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		h := env.newHarvester("")

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /harvest", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Date string `json:"date"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if !datePattern.MatchString(req.Date) {
				http.Error(w, `{"error":"date must be YYYYMMDD"}`, http.StatusBadRequest)
				return
			}

			// Run the harvest asynchronously
			go func() {
				stored, err := h.HarvestDate(ctx, req.Date)
				if err != nil {
					zap.L().Error("triggered harvest failed",
						zap.String("date", req.Date),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("triggered harvest complete",
					zap.String("date", req.Date),
					zap.Int("stored", stored),
				)
			}()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "accepted",
				"date":   req.Date,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
