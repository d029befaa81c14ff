package notifier

import (
	"fmt"
	"strings"

	"tradeguard/internal/types"
)

// FormatDecision renders one risk decision as a human-readable alert.
func FormatDecision(d types.RiskDecision) string {
	var b strings.Builder
	if d.Approved {
		fmt.Fprintf(&b, "✅ *%s %s* approved: %s\n", d.Action, d.Symbol, d.Reason)
		if d.Shares > 0 {
			fmt.Fprintf(&b, "Shares: %d\n", d.Shares)
		}
		if d.StopLoss > 0 {
			fmt.Fprintf(&b, "Stop loss: $%.2f\n", d.StopLoss)
		}
		if d.RiskAmount > 0 {
			fmt.Fprintf(&b, "Dollar risk: $%.2f\n", d.RiskAmount)
		}
	} else {
		fmt.Fprintf(&b, "❌ *%s %s* vetoed: %s\n", d.Action, d.Symbol, d.Reason)
	}
	if d.Confidence > 0 {
		fmt.Fprintf(&b, "Model confidence: %.0f%%", d.Confidence*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatBatch combines a batch of decisions into a single digest message,
// approved trades first.
func FormatBatch(decisions []types.RiskDecision) string {
	if len(decisions) == 0 {
		return ""
	}
	var approved, vetoed []string
	for _, d := range decisions {
		if d.Approved && d.Action != types.ActionHold {
			approved = append(approved, FormatDecision(d))
		} else if !d.Approved {
			vetoed = append(vetoed, FormatDecision(d))
		}
	}
	sections := make([]string, 0, 2)
	if len(approved) > 0 {
		sections = append(sections, strings.Join(approved, "\n\n"))
	}
	if len(vetoed) > 0 {
		sections = append(sections, strings.Join(vetoed, "\n\n"))
	}
	return strings.Join(sections, "\n\n")
}
