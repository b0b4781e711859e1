package compare

import "fmt"

// FormatPercent renders a percentage for display with two decimals and a
// single percent sign. Formatting never feeds back into computation.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
