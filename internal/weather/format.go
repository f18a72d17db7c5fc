package weather

import (
	"fmt"
	"strings"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Field is one labeled line of a report.
type Field struct {
	Label string
	Value string
}

// Fields returns the labeled report lines for r, in display order.
// Temperatures and wind speed keep one decimal; the rest are integers.
func Fields(r Record) []Field {
	description := "unknown"
	if c, ok := r.Primary(); ok {
		description = c.Description
	}

	return []Field{
		{"Temperature", Celsius(r.TemperatureC)},
		{"Feels like", Celsius(r.FeelsLikeC)},
		{"Condition", description},
		{"Humidity", fmt.Sprintf("%d%%", r.HumidityPct)},
		{"Pressure", fmt.Sprintf("%d hPa", r.PressureHpa)},
		{"Wind Speed", fmt.Sprintf("%.1f m/s", r.WindSpeedMS)},
		{"Visibility", fmt.Sprintf("%d meters", r.VisibilityM)},
	}
}

// Heading is the place line used by every surface, e.g. "Nairobi, KE".
func Heading(r Record) string {
	return r.Name + ", " + r.Country
}

// Format renders a record as the multi-line report shown on the console.
func Format(r Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weather in %s:\n", Heading(r))
	b.WriteString(separator + "\n")
	for _, f := range Fields(r) {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	b.WriteString(separator)
	return b.String()
}

// Celsius formats a temperature with exactly one decimal place.
func Celsius(v float64) string {
	return fmt.Sprintf("%.1f°C", v)
}
