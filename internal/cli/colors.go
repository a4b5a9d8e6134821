package cli

import (
	"fmt"

	"github.com/AI2HU/satlens/internal/metrics"
)

// ANSI color codes shared by every command
const (
	Reset = "\033[0m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	White  = "\033[37m"
	Gray   = "\033[90m"

	Bold = "\033[1m"
	Dim  = "\033[2m"
)

var (
	HeaderStyle = Cyan + Bold
	TitleStyle  = Blue + Bold

	SuccessStyle = Green + Bold
	ErrorStyle   = Red + Bold
	WarningStyle = Yellow + Bold
	InfoStyle    = Blue + Bold

	LabelStyle = Cyan
	ValueStyle = White + Bold
	DimStyle   = Dim
	CountStyle = Yellow + Bold

	SecondaryStyle = Blue
	MetaStyle      = Gray
)

func FormatHeader(text string) string {
	return HeaderStyle + text + Reset
}

func FormatValue(text string) string {
	return ValueStyle + text + Reset
}

func FormatCount(count int) string {
	return CountStyle + fmt.Sprintf("%d", count) + Reset
}

func FormatDim(text string) string {
	return DimStyle + text + Reset
}

func FormatSecondary(text string) string {
	return SecondaryStyle + text + Reset
}

func FormatMeta(text string) string {
	return MetaStyle + text + Reset
}

// FormatLabelValue formats a label-value pair
func FormatLabelValue(label, value string) string {
	return LabelStyle + label + Reset + " " + ValueStyle + value + Reset
}

// FormatHealth colors a vegetation health label from green to red
func FormatHealth(h metrics.Health) string {
	color := Gray
	switch h {
	case metrics.HealthExcellent, metrics.HealthGood:
		color = Green
	case metrics.HealthModerate:
		color = Yellow
	case metrics.HealthPoor, metrics.HealthVeryPoor:
		color = Red
	}
	return color + string(h) + Reset
}
