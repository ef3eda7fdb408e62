package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kabuto-group/disclosure-cli/internal/pathing"
)

var (
	mirrorDate string
	mirrorDest string
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copy one harvested date from storage to a local directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if mirrorDate == "" {
			return eris.New("--date is required")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		prefix := pathing.DatePrefix(cfg.Storage.BasePath, mirrorDate)
		keys, err := env.store.List(ctx, prefix)
		if err != nil {
			return eris.Wrapf(err, "list %s", prefix)
		}
		if len(keys) == 0 {
			zap.L().Warn("nothing to mirror", zap.String("prefix", prefix))
			return nil
		}

		copied := 0
		for _, key := range keys {
			data, err := env.store.ReadAll(ctx, key)
			if err != nil {
				zap.L().Error("read failed, skipping", zap.String("key", key), zap.Error(err))
				continue
			}

			dest := filepath.Join(mirrorDest, filepath.FromSlash(key))
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return eris.Wrapf(err, "create %s", filepath.Dir(dest))
			}
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return eris.Wrapf(err, "write %s", dest)
			}
			copied++
		}

		zap.L().Info("mirror finished",
			zap.String("date", mirrorDate),
			zap.Int("files", copied),
			zap.String("dest", mirrorDest),
		)
		return nil
	},
}

func init() {
	mirrorCmd.Flags().StringVar(&mirrorDate, "date", "", "harvested date to mirror (YYYYMMDD)")
	mirrorCmd.Flags().StringVar(&mirrorDest, "dest", "mirror", "local destination directory")
	rootCmd.AddCommand(mirrorCmd)
}
