package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alfredjeanlab/userassets/internal/model"
	"github.com/alfredjeanlab/userassets/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// printError writes err to stderr. Validation and persistence failures list
// one qualified field message per line.
func printError(err error) {
	writeError(os.Stderr, err)
}

func writeError(w io.Writer, err error) {
	var (
		ve *model.ValidationError
		pe *model.PersistError
	)
	switch {
	case errors.As(err, &ve):
		fmt.Fprintln(w, ui.RenderError("validation failed:"))
		writeFieldErrors(w, ve.Errors)
	case errors.As(err, &pe):
		header := "persist failed:"
		if pe.RolledBack {
			header = "persist failed (rolled back):"
		}
		fmt.Fprintln(w, ui.RenderError(header))
		writeFieldErrors(w, pe.Errors)
	default:
		if code := model.CodeOf(err); code != "" {
			fmt.Fprintf(w, "%s %v\n", ui.RenderError("Error ["+string(code)+"]:"), err)
			return
		}
		fmt.Fprintf(w, "%s %v\n", ui.RenderError("Error:"), err)
	}
}

func writeFieldErrors(w io.Writer, errs []model.FieldError) {
	for i := range errs {
		fmt.Fprintf(w, "  %s %s\n", ui.RenderMuted(string(errs[i].Code)), errs[i].Qualified())
	}
}

func printAsset(a *model.Asset) {
	if jsonOutput {
		printJSON(a)
		return
	}
	fmt.Printf("Name:        %s\n", a.Name)
	fmt.Printf("Category:    %s\n", ui.RenderAccent(string(a.Category)))
	fmt.Printf("Type:        %s\n", a.Type)
	fmt.Printf("Value:       %s\n", a.Value)
	if a.Description != "" {
		fmt.Printf("Description: %s\n", a.Description)
	}
	fmt.Printf("Created At:  %s\n", a.CreatedAt.Format(timeLayout))
	fmt.Printf("Updated At:  %s\n", a.UpdatedAt.Format(timeLayout))
}

func writeAssetTable(w io.Writer, list model.AssetList) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tVALUE\tUPDATED")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Name, a.Type, truncate(a.Value, 48), a.UpdatedAt.Format(timeLayout))
	}
	tw.Flush()
}

// printAllAssets prints every category in registry order, skipping empty
// ones in table mode.
func printAllAssets(all map[model.Category]model.AssetList) {
	if jsonOutput {
		printJSON(all)
		return
	}
	writeAllAssets(os.Stdout, all)
}

func writeAllAssets(w io.Writer, all map[model.Category]model.AssetList) {
	empty := true
	for _, cat := range model.Categories() {
		list := all[cat]
		if len(list) == 0 {
			continue
		}
		if !empty {
			fmt.Fprintln(w)
		}
		empty = false
		fmt.Fprintln(w, ui.RenderAccent(string(cat)+":"))
		writeAssetTable(w, list)
	}
	if empty {
		fmt.Fprintln(w, "No assets.")
	}
}

func printOwners(owners []*model.Owner) {
	if jsonOutput {
		printJSON(owners)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
	for _, o := range owners {
		fmt.Fprintf(w, "%d\t%s\t%s\n", o.ID, o.Username, o.CreatedAt.Format(timeLayout))
	}
	w.Flush()
}

func printSnapshots(snaps []*model.ProtectedAsset) {
	if jsonOutput {
		printJSON(snaps)
		return
	}
	if len(snaps) == 0 {
		fmt.Println("No protected assets.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OWNER\tCATEGORY\tNAME\tLEVEL\tVALUE\tUPDATED")
	for _, s := range snaps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.OwnerID, s.Category, s.Name, ui.RenderLevel(string(s.Level)),
			truncate(s.Value, 32), s.UpdatedAt.Format(timeLayout))
	}
	w.Flush()
}

func printProtectionLogs(logs []*model.ProtectionLog) {
	if jsonOutput {
		printJSON(logs)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOWNER\tACTION\tNAME\tOLD\tNEW\tSTATUS")
	for _, e := range logs {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format(timeLayout), e.OwnerID, e.Action, e.AssetName,
			truncate(e.OldValue, 24), truncate(e.NewValue, 24), e.Status)
	}
	w.Flush()
}

func printBackups(backups []*model.Backup) {
	if jsonOutput {
		printJSON(backups)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDESTINATION\tASSETS\tBYTES\tCREATED")
	for _, b := range backups {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", b.ID, b.Destination, b.AssetCount, b.Bytes, b.CreatedAt.Format(timeLayout))
	}
	w.Flush()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
