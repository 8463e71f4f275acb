package form

// Progress computes the completion percentage for a position in a sequence of
// total questions. The current question counts once answered. The result is
// clamped to [0, 100] and is 0 for an empty sequence.
func Progress(position, total int, currentAnswered bool) float64 {
	if total <= 0 {
		return 0
	}
	done := position
	if currentAnswered {
		done++
	}
	p := float64(done) / float64(total) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
