package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/service"
	"github.com/alfredjeanlab/userassets/internal/ui"
)

// ownerService opens the service and resolves ref to an owner.
func ownerService(ctx context.Context, ref string) (*service.AssetService, *model.Owner, error) {
	svc, err := rt.Service(ctx)
	if err != nil {
		return nil, nil, err
	}
	owner, err := svc.ResolveOwner(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	return svc, owner, nil
}

var setCmd = &cobra.Command{
	Use:   "set <owner> <name> <value>",
	Short: "Validate and store one asset",
	Long: `Validate and store one asset.

The category defaults to custom, where any name is accepted. In the other
categories the name must be defined by the schema and the value must satisfy
its constraints. The type defaults to the schema's type for the name.`,
	GroupID: "assets",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		typ, _ := cmd.Flags().GetString("type")
		desc, _ := cmd.Flags().GetString("description")
		skip, _ := cmd.Flags().GetBool("no-validate")

		svc, owner, err := ownerService(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var opts []service.SetOption
		if skip {
			opts = append(opts, service.WithoutValidation())
		}
		asset, err := svc.Set(cmd.Context(), service.SetInput{
			OwnerID:     owner.ID,
			Name:        args[1],
			Value:       args[2],
			Type:        model.AssetType(typ),
			Category:    model.Category(category),
			Description: desc,
		}, opts...)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(asset)
			return nil
		}
		fmt.Printf("%s %s.%s for %s\n", ui.RenderOK("Saved"), asset.Category, asset.Name, owner.Username)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:     "get <owner> [name]",
	Aliases: []string{"list"},
	Short:   "Show one asset, one category or everything an owner holds",
	GroupID: "assets",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")

		svc, owner, err := ownerService(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		switch {
		case len(args) == 2:
			asset, found, err := svc.Get(ctx, owner.ID, args[1])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("asset %q not found for %s", args[1], owner.Username)
			}
			printAsset(asset)
		case category != "":
			list, err := svc.GetByCategory(ctx, owner.ID, model.Category(category))
			if err != nil {
				return err
			}
			if jsonOutput {
				printJSON(list)
				return nil
			}
			printAllAssets(map[model.Category]model.AssetList{model.Category(category): list})
		default:
			all, err := svc.GetAll(ctx, owner.ID)
			if err != nil {
				return err
			}
			printAllAssets(all)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <owner> <name>",
	Short:   "Delete one asset",
	GroupID: "assets",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, owner, err := ownerService(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		removed, err := svc.Delete(cmd.Context(), owner.ID, args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]any{"name": args[1], "deleted": removed})
			return nil
		}
		if removed {
			fmt.Printf("%s %s\n", ui.RenderOK("Deleted"), args[1])
		} else {
			fmt.Printf("%s was not set\n", args[1])
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:     "clear <owner>",
	Short:   "Delete every asset an owner holds",
	GroupID: "assets",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			return errors.New("clear removes every asset of the owner; pass --force to confirm")
		}
		svc, owner, err := ownerService(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := svc.DeleteAll(cmd.Context(), owner.ID); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Printf("%s all assets of %s\n", ui.RenderOK("Cleared"), owner.Username)
		}
		return nil
	},
}

var defaultsCmd = &cobra.Command{
	Use:     "defaults <owner>",
	Short:   "Write schema defaults for fields the owner has not set",
	GroupID: "assets",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, owner, err := ownerService(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		n, err := svc.ApplyDefaults(cmd.Context(), owner.ID)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]int{"written": n})
			return nil
		}
		fmt.Printf("%s %d default(s) for %s\n", ui.RenderOK("Wrote"), n, owner.Username)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:     "seed <owner>",
	Short:   "Store the sample profile, preferences, security and system assets",
	GroupID: "assets",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, owner, err := ownerService(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := svc.SeedSamples(cmd.Context(), owner.ID); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Printf("%s %d sample assets for %s\n", ui.RenderOK("Seeded"), service.SampleBatch().Len(), owner.Username)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <owner> <file>",
	Short: "Validate a YAML or JSON batch file and store it atomically",
	Long: `Validate a YAML or JSON batch file and store it atomically.

The file maps categories to fields:

  profile:
    first_name: Ahmet
    email: ahmet@example.com
  preferences:
    theme: dark

Every field is validated first; nothing is written unless all pass. The
write itself runs in one transaction.`,
	GroupID: "assets",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, err := readBatchFile(args[1])
		if err != nil {
			return err
		}
		svc, owner, err := ownerService(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := svc.ValidateThenPersist(cmd.Context(), owner.ID, batch); err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]int{"written": batch.Len()})
			return nil
		}
		fmt.Printf("%s %d field(s) for %s\n", ui.RenderOK("Imported"), batch.Len(), owner.Username)
		return nil
	},
}

func init() {
	setCmd.Flags().StringP("category", "c", string(model.CategoryCustom), "asset category")
	setCmd.Flags().StringP("type", "t", "", "asset type (default: the schema's type for the name)")
	setCmd.Flags().StringP("description", "d", "", "asset description")
	setCmd.Flags().Bool("no-validate", false, "store without schema validation")

	getCmd.Flags().StringP("category", "c", "", "list one category")

	clearCmd.Flags().Bool("force", false, "confirm deletion")
}
