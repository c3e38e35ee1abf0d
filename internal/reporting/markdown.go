package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Momentum Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RequestedDate != "" {
		sb.WriteString(fmt.Sprintf("As of: %s\n\n", r.RequestedDate))
	} else {
		sb.WriteString("As of: latest\n\n")
	}

	// Latest run
	if run := r.LatestRun; run != nil {
		sb.WriteString("## Latest Run\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", run.RunID))
		sb.WriteString(fmt.Sprintf("| As-of Date | %s |\n", run.AsOfDate))
		sb.WriteString(fmt.Sprintf("| Status | %s |\n", run.Status))
		if sum := run.Summary; sum != nil {
			sb.WriteString(fmt.Sprintf("| Items Processed | %d |\n", sum.ItemsProcessed))
			sb.WriteString(fmt.Sprintf("| New Items | %d |\n", sum.NewItems))
			sb.WriteString(fmt.Sprintf("| Potential Duplicates | %d |\n", sum.PotentialDuplicates))
			sb.WriteString(fmt.Sprintf("| Items Failed | %d |\n", sum.ItemsFailed))
			if len(sum.PlatformsFailed) > 0 {
				sb.WriteString(fmt.Sprintf("| Platforms Failed | %s |\n", strings.Join(sum.PlatformsFailed, ", ")))
			}
		}
		sb.WriteString("\n")
	}

	for _, s := range r.Sections {
		sb.WriteString(fmt.Sprintf("## Window %s\n\n", s.Window))
		if s.Empty() {
			sb.WriteString("No momentum computed.\n\n")
			continue
		}
		if s.Fallback {
			sb.WriteString(fmt.Sprintf("Served from %s (no set for the requested date).\n\n", s.ServedDate))
		}

		sb.WriteString("| Rank | Platform | Item | Baseline | Latest | Delta | Per Day | Rate | Pctl |\n")
		sb.WriteString("|------|----------|------|----------|--------|-------|---------|------|------|\n")
		for _, m := range s.Records {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %d | %d | %.2f | %.4f | %.1f |\n",
				m.Rank, m.Platform, escapeCell(m.DisplayName),
				m.BaselineValue, m.LatestValue, m.Delta,
				m.DeltaPerDay, m.DeltaRate, m.Percentile))
		}
		if s.Total > len(s.Records) {
			sb.WriteString(fmt.Sprintf("\nShowing %d of %d.\n", len(s.Records), s.Total))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
