package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/userassets/internal/config"
	assetsync "github.com/alfredjeanlab/userassets/internal/sync"
	"github.com/alfredjeanlab/userassets/internal/ui"
)

var backupCmd = &cobra.Command{
	Use:     "backup",
	Short:   "Export, ship and reload the asset tables",
	GroupID: "system",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Export to every configured destination",
	Long: `Export to every configured destination.

Destinations come from ASSETS_BACKUP_FILE, ASSETS_BACKUP_S3_BUCKET and
ASSETS_BACKUP_GIT_REPO. With --every (or ASSETS_BACKUP_INTERVAL) the export
repeats until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		every, _ := cmd.Flags().GetDuration("every")
		if file != "" {
			rt.cfg.BackupFile = file
		}
		if every == 0 {
			every = rt.cfg.BackupInterval
		}

		ctx := cmd.Context()
		svc, err := rt.Service(ctx)
		if err != nil {
			return err
		}
		dests, err := backupDestinations(ctx, rt.cfg)
		if err != nil {
			return err
		}
		if len(dests) == 0 {
			return errors.New("no backup destination configured (use --file or ASSETS_BACKUP_*)")
		}
		for _, d := range dests {
			rt.logger.Info("backup destination enabled", "destination", d.Name())
		}

		scheduler := assetsync.NewScheduler(svc.Store(), dests, every, rt.logger, rt.publisher)
		if every <= 0 {
			done := scheduler.RunOnce(ctx)
			if jsonOutput {
				printJSON(done)
			} else {
				printBackups(done)
			}
			if len(done) < len(dests) {
				return fmt.Errorf("%d of %d destination(s) failed", len(dests)-len(done), len(dests))
			}
			return nil
		}

		stopMetrics := rt.ServeMetrics()
		defer stopMetrics()

		scheduler.Start()
		rt.logger.Info("backup scheduler started", "interval", every)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		rt.logger.Info("received signal, shutting down", "signal", sig)

		scheduler.Stop()
		rt.logger.Info("backup scheduler stopped")
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.Service(cmd.Context())
		if err != nil {
			return err
		}
		backups, err := svc.Store().ListBackups(cmd.Context())
		if err != nil {
			return err
		}
		printBackups(backups)
		return nil
	},
}

var backupExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write a JSONL export to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := rt.Service(ctx)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			_, err := assetsync.ExportJSONL(ctx, svc.Store(), os.Stdout)
			return err
		}

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		sum, err := assetsync.ExportJSONL(ctx, svc.Store(), f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s %d owner(s), %d asset(s) to %s\n", ui.RenderOK("Exported"), sum.Owners, sum.Assets, args[0])
		return nil
	},
}

var backupLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Replay a JSONL export through validation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := rt.Service(ctx)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := assetsync.ImportJSONL(ctx, svc, f)
		if err != nil {
			return err
		}
		if jsonOutput {
			failures := make([]string, len(res.Failures))
			for i, lf := range res.Failures {
				failures[i] = lf.Error()
			}
			printJSON(map[string]any{"owners_created": res.Owners, "assets": res.Assets, "failures": failures})
			return nil
		}
		fmt.Printf("%s %d asset(s), %d new owner(s)\n", ui.RenderOK("Loaded"), res.Assets, res.Owners)
		for _, lf := range res.Failures {
			fmt.Printf("  %s\n", ui.RenderError(lf.Error()))
		}
		return nil
	},
}

// backupDestinations builds the destinations enabled in cfg. An S3
// destination that cannot be configured fails the command.
func backupDestinations(ctx context.Context, cfg *config.Config) ([]assetsync.Destination, error) {
	var dests []assetsync.Destination
	if cfg.BackupFile != "" {
		dests = append(dests, assetsync.NewFileDestination(cfg.BackupFile))
	}
	if cfg.BackupS3Bucket != "" {
		s3Dest, err := assetsync.NewS3Destination(ctx, cfg.BackupS3Bucket, cfg.BackupS3Key, cfg.BackupS3Region, cfg.BackupS3Endpoint)
		if err != nil {
			return nil, fmt.Errorf("S3 backup destination: %w", err)
		}
		dests = append(dests, s3Dest)
	}
	if cfg.BackupGitRepo != "" {
		dests = append(dests, assetsync.NewGitDestination(cfg.BackupGitRepo, cfg.BackupGitFile, cfg.BackupGitBranch))
	}
	return dests, nil
}

func init() {
	backupRunCmd.Flags().String("file", "", "write the export to this file (overrides ASSETS_BACKUP_FILE)")
	backupRunCmd.Flags().Duration("every", 0, "repeat at this interval until interrupted")

	backupCmd.AddCommand(backupRunCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupLoadCmd)
}

