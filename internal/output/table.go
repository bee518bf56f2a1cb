package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"phishguard/internal/domain"
)

type TableFormatter struct{}

func (f *TableFormatter) Format(a domain.Assessment) ([]byte, error) {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.AppendHeader(table.Row{"Signal", "Score", "Confidence", "Issues"})
	for _, s := range a.Signals {
		issues := strings.Join(s.Issues, "; ")
		if s.Failed {
			issues = color.New(color.FgWhite, color.Faint).Sprint("failed: " + s.FailureReason)
		}
		t.AppendRow(table.Row{s.Kind, fmt.Sprintf("%+d", s.ScoreDelta), s.Confidence, issues})
	}
	t.AppendFooter(table.Row{"Total", a.TotalScore, "", ""})
	t.Render()

	fmt.Fprintf(&buf, "\nURL:        %s\n", a.Target.Raw)
	fmt.Fprintf(&buf, "Risk level: %s\n", colorizeTier(a.Tier))
	fmt.Fprintf(&buf, "Phishing:   %t\n", a.IsPhishing)
	if len(a.Recommendations) > 0 {
		buf.WriteString("\nRecommendations:\n")
		for _, r := range a.Recommendations {
			fmt.Fprintf(&buf, "  - %s\n", r)
		}
	}
	return buf.Bytes(), nil
}

func colorizeTier(tier domain.Tier) string {
	switch tier {
	case domain.TierHigh:
		return color.New(color.FgRed, color.Bold).Sprint(string(tier))
	case domain.TierMedium:
		return color.YellowString(string(tier))
	case domain.TierLowMedium:
		return color.BlueString(string(tier))
	default:
		return color.GreenString(string(tier))
	}
}
