package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nfrund/eventbus/internal/eventbus"
	"github.com/nfrund/eventbus/internal/modules/wargame"
)

// printKindsTable displays kinds in a formatted table
func printKindsTable(w io.Writer, kinds []eventbus.KindInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tMODULE\tSUBSCRIBERS\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t------\t-----------\t-----------")

	if len(kinds) == 0 {
		fmt.Fprintln(tw, "No kinds found")
		return
	}
	for _, k := range kinds {
		module := k.Module
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", k.Name, module, k.Subscribers, truncateString(k.Description, 40))
	}
}

// printResultTable displays a finished skirmish
func printResultTable(w io.Writer, r *wargame.Result) {
	fmt.Fprintf(w, "Scenario %q: %d rounds played\n\n", r.Scenario, r.RoundsPlayed)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tNAME\tHP\tSTATUS\tDAMAGE TAKEN")
	fmt.Fprintln(tw, "----\t----\t--\t------\t------------")
	for _, u := range r.Units {
		status := "destroyed"
		if u.Alive {
			status = "alive"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\n", u.ID, u.Name, u.HP, status, r.Score.DamageTaken[u.ID])
	}
	tw.Flush()

	fmt.Fprintf(w, "\nBus: %d publishes, %d deliveries, %d faults, %d unheard\n",
		r.Bus.Publishes, r.Bus.Deliveries, r.Bus.Faults, r.Bus.Unheard)
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// truncateString truncates a string to the specified length with ellipsis
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
