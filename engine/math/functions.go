package math

import "golang.org/x/exp/constraints"

// Clamp constrains value to the inclusive [min, max] range.
func Clamp[T constraints.Ordered](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
