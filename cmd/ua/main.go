package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/userassets/internal/ui"
)

var (
	jsonOutput bool
	noColor    bool

	rt *app
)

var rootCmd = &cobra.Command{
	Use:           "ua <command>",
	Short:         "Validate and store user assets",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.ForceNoColor()
		}
		r, err := newApp()
		if err != nil {
			return err
		}
		rt = r
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "assets", Title: "Assets:"},
		&cobra.Group{ID: "owners", Title: "Owners:"},
		&cobra.Group{ID: "protection", Title: "Protection:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Assets
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(defaultsCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(validateCmd)

	// Owners
	rootCmd.AddCommand(ownerCmd)

	// Protection
	rootCmd.AddCommand(protectCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(statusCmd)

	// System
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(watchCmd)
}

// execute runs the root command and releases whatever it opened, including
// when the command fails.
func execute() error {
	defer func() {
		if rt != nil {
			rt.Close()
			rt = nil
		}
	}()
	return rootCmd.Execute()
}

func main() {
	if err := execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
