package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/userassets/internal/ui"
)

var ownerCmd = &cobra.Command{
	Use:     "owner",
	Short:   "Manage asset owners",
	GroupID: "owners",
}

var ownerAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.Service(cmd.Context())
		if err != nil {
			return err
		}
		owner, err := svc.CreateOwner(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(owner)
			return nil
		}
		fmt.Printf("%s owner %s (id %d)\n", ui.RenderOK("Created"), owner.Username, owner.ID)
		return nil
	},
}

var ownerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List owners",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.Service(cmd.Context())
		if err != nil {
			return err
		}
		owners, err := svc.ListOwners(cmd.Context())
		if err != nil {
			return err
		}
		printOwners(owners)
		return nil
	},
}

var ownerDeleteCmd = &cobra.Command{
	Use:   "delete <owner>",
	Short: "Delete an owner and every asset it holds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := rt.Service(cmd.Context())
		if err != nil {
			return err
		}
		owner, err := svc.ResolveOwner(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := svc.DeleteOwner(cmd.Context(), owner.ID); err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]any{"deleted": owner.Username, "id": owner.ID})
			return nil
		}
		fmt.Printf("%s owner %s\n", ui.RenderOK("Deleted"), owner.Username)
		return nil
	},
}

func init() {
	ownerCmd.AddCommand(ownerAddCmd)
	ownerCmd.AddCommand(ownerListCmd)
	ownerCmd.AddCommand(ownerDeleteCmd)
}
