package composer

import "strings"

// WrapText greedily fills lines with whole words while measure stays within
// maxWidth. A word wider than maxWidth gets a line of its own. Explicit
// newlines always break.
func WrapText(text string, maxWidth float64, measure func(string) float64) []string {
	var lines []string

	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}

		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if measure(candidate) > maxWidth {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}

	return lines
}
