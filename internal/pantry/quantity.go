package pantry

import (
	"strconv"
	"strings"
)

// MaxCount is the largest quantity or count a row may hold.
const MaxCount = 1_000_000

// Clamp floors a quantity or count at 1 and caps it at MaxCount.
func Clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}

// ParseQuantity reads a form value as a quantity. Missing, malformed and
// non-positive input all become 1.
func ParseQuantity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return Clamp(n)
}
