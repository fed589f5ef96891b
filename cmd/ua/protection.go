package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/protect"
	"github.com/alfredjeanlab/userassets/internal/ui"
)

var protectCmd = &cobra.Command{
	Use:     "protect [owner]",
	Short:   "Snapshot an owner's assets so they can be restored",
	GroupID: "protection",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 1) {
			return errors.New("give an owner or --all, not both")
		}
		ctx := cmd.Context()
		p, err := rt.Protector(ctx)
		if err != nil {
			return err
		}

		var res protect.ProtectResult
		if all {
			res, err = p.ProtectAll(ctx)
		} else {
			_, owner, oerr := ownerService(ctx, args[0])
			if oerr != nil {
				return oerr
			}
			res, err = p.Protect(ctx, owner.ID)
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]int{"protected": res.Protected, "refreshed": res.Refreshed})
			return nil
		}
		fmt.Printf("%s %d new, %d refreshed\n", ui.RenderOK("Protected"), res.Protected, res.Refreshed)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:     "restore <owner>",
	Short:   "Write protected snapshots back through validation",
	GroupID: "protection",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		beforeStr, _ := cmd.Flags().GetString("before")
		var before *time.Time
		if beforeStr != "" {
			t, err := time.Parse(time.RFC3339, beforeStr)
			if err != nil {
				return fmt.Errorf("--before: %w", err)
			}
			before = &t
		}

		ctx := cmd.Context()
		p, err := rt.Protector(ctx)
		if err != nil {
			return err
		}
		_, owner, err := ownerService(ctx, args[0])
		if err != nil {
			return err
		}
		res, err := p.Restore(ctx, owner.ID, before)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]any{"restored": res.Restored, "failures": validationReport(failuresError(res)).Errors})
			return nil
		}
		fmt.Printf("%s %d asset(s) for %s\n", ui.RenderOK("Restored"), res.Restored, owner.Username)
		if len(res.Failures) > 0 {
			fmt.Println(ui.RenderError(fmt.Sprintf("%d snapshot(s) not restored:", len(res.Failures))))
			writeFieldErrors(cmd.OutOrStdout(), res.Failures)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status [owner]",
	Short:   "Show protected snapshots or the protection log",
	GroupID: "protection",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		history, _ := cmd.Flags().GetBool("history")
		ctx := cmd.Context()
		p, err := rt.Protector(ctx)
		if err != nil {
			return err
		}

		var ownerID int64
		if len(args) == 1 {
			_, owner, err := ownerService(ctx, args[0])
			if err != nil {
				return err
			}
			ownerID = owner.ID
		}

		if history {
			if ownerID == 0 {
				return errors.New("--history needs an owner")
			}
			logs, err := p.History(ctx, ownerID)
			if err != nil {
				return err
			}
			printProtectionLogs(logs)
			return nil
		}

		snaps, err := p.Status(ctx, ownerID)
		if err != nil {
			return err
		}
		printSnapshots(snaps)
		return nil
	},
}

// failuresError wraps restore failures so they share the validate report
// shape. It returns nil when there are none.
func failuresError(res protect.RestoreResult) error {
	if len(res.Failures) == 0 {
		return nil
	}
	return &model.ValidationError{Errors: res.Failures}
}

func init() {
	protectCmd.Flags().Bool("all", false, "protect every owner")
	restoreCmd.Flags().String("before", "", "only restore snapshots taken at or before this RFC 3339 time")
	statusCmd.Flags().Bool("history", false, "show the protection log instead of the snapshots")
}
