package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate [<category> <name> <value>]",
	Short: "Check a value or a batch file against the schema without storing it",
	Long: `Check a value or a batch file against the schema without storing it.

With three arguments one field is checked. With --file every field in the
batch is checked and all failures are reported.`,
	GroupID: "assets",
	Args: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		if file != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(3)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		typ, _ := cmd.Flags().GetString("type")

		var err error
		if file != "" {
			batch, readErr := readBatchFile(file)
			if readErr != nil {
				return readErr
			}
			err = rt.validator.ValidateBatch(batch)
		} else {
			err = rt.validator.Validate(model.Category(args[0]), args[1], args[2], model.AssetType(typ))
		}
		rt.metrics.ObserveValidation(err == nil)

		if jsonOutput {
			printJSON(validationReport(err))
			if err != nil {
				return errInvalid
			}
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(ui.RenderOK("valid"))
		return nil
	},
}

// errInvalid fails the command after the report has been printed.
var errInvalid = errors.New("validation failed")

type report struct {
	Valid  bool          `json:"valid"`
	Errors []fieldReport `json:"errors,omitempty"`
}

type fieldReport struct {
	Category string `json:"category"`
	Field    string `json:"field,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

func validationReport(err error) report {
	if err == nil {
		return report{Valid: true}
	}
	var (
		ve   *model.ValidationError
		fe   *model.FieldError
		errs []model.FieldError
	)
	switch {
	case errors.As(err, &ve):
		errs = ve.Errors
	case errors.As(err, &fe):
		errs = []model.FieldError{*fe}
	default:
		return report{Errors: []fieldReport{{Message: err.Error()}}}
	}
	out := report{Errors: make([]fieldReport, len(errs))}
	for i, e := range errs {
		out.Errors[i] = fieldReport{
			Category: string(e.Category),
			Field:    e.Field,
			Code:     string(e.Code),
			Message:  e.Message,
		}
	}
	return out
}

func init() {
	validateCmd.Flags().StringP("file", "f", "", "validate a YAML or JSON batch file")
	validateCmd.Flags().StringP("type", "t", "", "declared type of the value")
}
