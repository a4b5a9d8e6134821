package metrics

import (
	"fmt"
	"strings"
)

// Summary holds the inputs of the agriculture summary sentence
type Summary struct {
	Health      Health
	Change      *float64
	Anomalies   int
	Breakpoints int
}

// Summarize builds the dashboard summary sentence
func Summarize(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vegetation health is currently %s", strings.ToLower(string(s.Health)))
	if s.Change != nil {
		fmt.Fprintf(&b, ", %s", DescribeTrend(*s.Change))
	}
	b.WriteString(". Time series analysis has ")

	if s.Anomalies > 0 {
		fmt.Fprintf(&b, "detected %d anomalies", s.Anomalies)
	} else {
		b.WriteString("no anomalies detected")
	}
	b.WriteString(" and ")
	if s.Breakpoints > 0 {
		fmt.Fprintf(&b, "identified %d significant change points", s.Breakpoints)
	} else {
		b.WriteString("no significant change points identified")
	}
	b.WriteString(" in the monitored period.")
	return b.String()
}

// InsufficientData is shown when there is nothing to summarize
const InsufficientData = "Insufficient data for analysis."
