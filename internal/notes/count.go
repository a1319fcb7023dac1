package notes

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var countPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([kKwW万]?)$`)

// ParseCount turns engagement counts as displayed by the platform ("1.2k", "3.4w", "2,345",
// "10万+") into integers. Anything it cannot read is 0.
func ParseCount(text string) int64 {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "+")
	text = strings.ReplaceAll(text, ",", "")
	text = strings.TrimSpace(text)

	match := countPattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	switch match[2] {
	case "k", "K":
		value *= 1_000
	case "w", "W", "万":
		value *= 10_000
	}
	if value > math.MaxInt64/2 {
		return 0
	}
	return int64(math.Round(value))
}
