package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/schema"
	"github.com/alfredjeanlab/userassets/internal/ui"
)

var schemaCmd = &cobra.Command{
	Use:     "schema [category]",
	Short:   "Show the field definitions of each category",
	GroupID: "system",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := rt.validator.Registry()
		cats := model.Categories()
		if len(args) == 1 {
			cat := model.Category(args[0])
			if !cat.IsValid() {
				return fmt.Errorf("invalid category: %s", cat)
			}
			cats = []model.Category{cat}
		}

		if jsonOutput {
			out := make(map[model.Category][]fieldView, len(cats))
			for _, cat := range cats {
				out[cat] = fieldViews(registry.Fields(cat))
			}
			printJSON(out)
			return nil
		}

		for i, cat := range cats {
			if i > 0 {
				fmt.Println()
			}
			fmt.Println(ui.RenderAccent(string(cat) + ":"))
			if cat.SchemaExempt() {
				fmt.Println(ui.RenderMuted("  any name, any type"))
				continue
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "  NAME\tTYPE\tCONSTRAINTS\tDESCRIPTION")
			for _, v := range fieldViews(registry.Fields(cat)) {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", v.Name, v.Type, strings.Join(v.Constraints, ", "), v.Description)
			}
			w.Flush()
		}
		return nil
	},
}

type fieldView struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

func fieldViews(defs []schema.FieldDef) []fieldView {
	out := make([]fieldView, len(defs))
	for i, d := range defs {
		out[i] = fieldView{
			Name:        d.Name,
			Type:        string(d.Type),
			Description: d.Description,
			Default:     d.Default,
			Constraints: constraints(d),
		}
	}
	return out
}

func constraints(d schema.FieldDef) []string {
	var c []string
	if d.Required {
		c = append(c, "required")
	}
	if d.MaxLength != nil {
		c = append(c, fmt.Sprintf("max %d chars", *d.MaxLength))
	}
	if d.MinValue != nil {
		c = append(c, fmt.Sprintf(">= %d", *d.MinValue))
	}
	if d.MaxValue != nil {
		c = append(c, fmt.Sprintf("<= %d", *d.MaxValue))
	}
	if len(d.AllowedValues) > 0 {
		c = append(c, "one of "+strings.Join(d.AllowedValues, "|"))
	}
	if d.Pattern != "" {
		c = append(c, "pattern "+d.Pattern)
	}
	return c
}
