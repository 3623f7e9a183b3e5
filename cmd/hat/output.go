package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/sortinghat/pkg/forest"
	"github.com/vanderheijden86/sortinghat/pkg/metrics"
	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// maxCellWidth bounds free-text table cells.
const maxCellWidth = 60

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, maxCellWidth, "…")
}

// printForest writes nodes as an indented tree. Indentation follows the
// node level; orphans are listed at the top with a marker.
func printForest(w io.Writer, nodes []model.TaxonomyNode, indent int) {
	f := forest.Build(nodes)
	if f.Empty() {
		fmt.Fprintln(w, "(no nodes)")
		return
	}
	f.Walk(func(n model.TaxonomyNode, depth int) bool {
		pad := strings.Repeat(" ", max(n.Level-1, 0)*indent)
		line := pad + n.Name
		if depth == 0 && f.IsOrphan(n.ID) {
			line += "  (orphan)"
		}
		fmt.Fprintf(w, "%s  [%s]\n", line, n.Path)
		return true
	})
}

func printNodeDetail(w io.Writer, d *model.TaxonomyNodeDetail) {
	if crumb := d.Breadcrumb(); crumb != "" {
		fmt.Fprintln(w, crumb)
	}
	fmt.Fprintf(w, "%s  [%s · L%d]\n", d.Name, strings.ToUpper(string(d.Branch)), d.Level)
	fmt.Fprintf(w, "id:   %s\npath: %s\n", d.ID, d.Path)

	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		fmt.Fprintf(w, "\n%s\n  %s\n", title, strings.ReplaceAll(body, "\n", "\n  "))
	}
	section("Definition", d.Definition)
	section("Distinguishing characteristics", d.DistinguishingCharacteristics)
	section("Includes", d.Inclusions)
	section("Does not include", d.Exclusions)

	if len(d.Children) > 0 {
		fmt.Fprintf(w, "\nChildren (%d)\n", len(d.Children))
		for _, c := range d.Children {
			fmt.Fprintf(w, "  - %s\n", c.Name)
		}
	}
}

func printGroups(w io.Writer, groups []model.GovernanceGroup) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tSOFTWARE\tHARDWARE")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Slug, cell(g.Name), yesNo(g.CoversSoftware), yesNo(g.CoversHardware))
	}
	tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func printClassification(w io.Writer, d *model.ClassificationDetail, showSteps bool) {
	fmt.Fprintf(w, "URL:        %s\n", d.URL)
	if d.PrimaryNodePath != nil && *d.PrimaryNodePath != "" {
		fmt.Fprintf(w, "Primary:    %s\n", *d.PrimaryNodePath)
	} else {
		fmt.Fprintln(w, "Primary:    No classification")
	}
	secondary := d.SecondaryNodePaths
	if len(secondary) == 0 {
		secondary = d.SecondaryNodeIDs
	}
	for i, s := range secondary {
		label := ""
		if i == 0 {
			label = "Secondary:"
		}
		fmt.Fprintf(w, "%-11s %s\n", label, s)
	}
	if pct, ok := d.Confidence(); ok {
		fmt.Fprintf(w, "Confidence: %d%%\n", pct)
	}
	if d.ModelUsed != "" {
		fmt.Fprintf(w, "Model:      %s\n", d.ModelUsed)
	}
	if d.ProductSummary != "" {
		fmt.Fprintf(w, "\nSummary\n  %s\n", d.ProductSummary)
	}
	if d.Reasoning != "" {
		fmt.Fprintf(w, "\nReasoning\n  %s\n", d.Reasoning)
	}
	if len(d.Steps) == 0 {
		return
	}
	if !showSteps {
		fmt.Fprintf(w, "\nPipeline: %d steps (use --steps to show)\n", len(d.Steps))
		return
	}
	fmt.Fprintf(w, "\nPipeline (%d steps)\n", len(d.Steps))
	for i, st := range d.Steps {
		fmt.Fprintf(w, "  %d. %s  %dms  %d tokens", i+1, strings.ToUpper(string(st.StepType)), st.LatencyMs, st.TokensUsed)
		if st.ModelUsed != "" {
			fmt.Fprintf(w, "  %s", st.ModelUsed)
		}
		fmt.Fprintln(w)
		if out := st.DisplayOutput(); out != "" {
			fmt.Fprintf(w, "     %s\n", strings.ReplaceAll(out, "\n", "\n     "))
		}
	}
}

func printHistory(w io.Writer, items []model.ClassificationResult) {
	if len(items) == 0 {
		fmt.Fprintln(w, "(no classifications)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tCONF\tPRIMARY\tURL")
	for _, r := range items {
		conf := "-"
		if pct, ok := r.Confidence(); ok {
			conf = fmt.Sprintf("%d%%", pct)
		}
		primary := "No classification"
		if r.PrimaryNodePath != nil && *r.PrimaryNodePath != "" {
			primary = *r.PrimaryNodePath
		}
		created := "-"
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, created, conf, cell(primary), cell(r.URL))
	}
	tw.Flush()
}

func printProblems(w io.Writer, problems []forest.Problem) {
	if len(problems) == 0 {
		fmt.Fprintln(w, "OK: no problems found")
		return
	}
	for _, p := range problems {
		fmt.Fprintln(w, p.String())
	}
}

func printTimings(w io.Writer, stats []metrics.TimingStats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "(no timings recorded)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "OPERATION\tCOUNT\tAVG ms\tMIN ms\tMAX ms\t")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\t%.1f\t\n", s.Name, s.Count, s.AvgMs, s.MinMs, s.MaxMs)
	}
	tw.Flush()
}
