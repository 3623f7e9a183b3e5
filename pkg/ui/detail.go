package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// nodeDetailMarkdown builds the detail pane for a taxonomy node: breadcrumb,
// badges, the descriptive fields that are set, and the direct children.
func nodeDetailMarkdown(d *model.TaxonomyNodeDetail) string {
	var sb strings.Builder

	if crumb := d.Breadcrumb(); crumb != "" {
		sb.WriteString(fmt.Sprintf("*%s*\n\n", crumb))
	}
	sb.WriteString(fmt.Sprintf("# %s\n", d.Name))

	sb.WriteString("| Branch | Level | Path |\n|---|---|---|\n")
	sb.WriteString(fmt.Sprintf("| **%s** | L%d | `%s` |\n\n",
		strings.ToUpper(string(d.Branch)), d.Level, d.Path))

	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		sb.WriteString("### " + title + "\n")
		sb.WriteString(body + "\n\n")
	}
	section("Definition", d.Definition)
	section("Distinguishing Characteristics", d.DistinguishingCharacteristics)
	section("Includes", d.Inclusions)
	section("Does Not Include", d.Exclusions)

	if len(d.Children) > 0 {
		sb.WriteString(fmt.Sprintf("### Children (%d)\n", len(d.Children)))
		for _, c := range d.Children {
			sb.WriteString(fmt.Sprintf("- %s\n", c.Name))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// classificationMarkdown builds the result view. Pipeline steps are listed
// only when showSteps is set; the header always says how many there are.
func classificationMarkdown(d *model.ClassificationDetail, showSteps bool) string {
	var sb strings.Builder

	sb.WriteString("# Classification\n")
	sb.WriteString(fmt.Sprintf("`%s`\n\n", d.URL))

	if d.ProductSummary != "" {
		sb.WriteString("### Summary\n")
		sb.WriteString(d.ProductSummary + "\n\n")
	}

	sb.WriteString("### Primary\n")
	if d.PrimaryNodePath != nil && *d.PrimaryNodePath != "" {
		sb.WriteString(fmt.Sprintf("**%s**\n\n", *d.PrimaryNodePath))
	} else {
		sb.WriteString("No classification\n\n")
	}

	secondary := d.SecondaryNodePaths
	if len(secondary) == 0 {
		secondary = d.SecondaryNodeIDs
	}
	if len(secondary) > 0 {
		sb.WriteString("### Secondary\n")
		for _, s := range secondary {
			sb.WriteString(fmt.Sprintf("- %s\n", s))
		}
		sb.WriteString("\n")
	}

	if pct, ok := d.Confidence(); ok {
		sb.WriteString(fmt.Sprintf("**Confidence:** %d%%\n\n", pct))
	}
	if d.ModelUsed != "" {
		sb.WriteString(fmt.Sprintf("**Model:** %s\n\n", d.ModelUsed))
	}

	if d.Reasoning != "" {
		sb.WriteString("### Reasoning\n")
		sb.WriteString(d.Reasoning + "\n\n")
	}

	if len(d.Steps) == 0 {
		return sb.String()
	}
	verb := "Show"
	if showSteps {
		verb = "Hide"
	}
	sb.WriteString(fmt.Sprintf("---\n\n*%s pipeline details (%d steps)* (press s)\n\n", verb, len(d.Steps)))
	if !showSteps {
		return sb.String()
	}
	for i, st := range d.Steps {
		sb.WriteString(fmt.Sprintf("#### %d. %s\n", i+1, strings.ToUpper(string(st.StepType))))
		sb.WriteString(fmt.Sprintf("%dms · %d tokens", st.LatencyMs, st.TokensUsed))
		if st.ModelUsed != "" {
			sb.WriteString(" · " + st.ModelUsed)
		}
		sb.WriteString("\n\n")
		if out := st.DisplayOutput(); out != "" {
			sb.WriteString("```\n" + out + "\n```\n\n")
		}
	}
	return sb.String()
}
