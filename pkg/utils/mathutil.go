package utils

// Clamp 将 v 限制在 [lo, hi] 区间
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 将 v 限制在 [0, 1] 区间
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// MoveTowards 让 current 以最大步长 maxDelta 逼近 target，不会越过 target
func MoveTowards(current, target, maxDelta float64) float64 {
	if current > target {
		current -= maxDelta
		if current <= target {
			current = target
		}
	} else if current < target {
		current += maxDelta
		if current >= target {
			current = target
		}
	}
	return current
}
