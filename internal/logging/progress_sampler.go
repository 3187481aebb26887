package logging

// ProgressSampler thins out progress logging for long walks such as a
// prefetch over a large document or a directory import. It reports only
// when the completed percentage enters a new step.
type ProgressSampler struct {
	step int
	last int
}

// NewProgressSampler reports every step percent; values outside 1..100
// fall back to 25.
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 || step > 100 {
		step = 25
	}
	return &ProgressSampler{step: step, last: -1}
}

// Sample returns the percentage for done of total and whether it starts a
// new step. A nil sampler reports every call; a non-positive total never.
func (s *ProgressSampler) Sample(done, total int) (int, bool) {
	if total <= 0 {
		return 0, false
	}
	done = min(max(done, 0), total)
	percent := done * 100 / total
	if s == nil {
		return percent, true
	}
	if bucket := percent / s.step; bucket > s.last {
		s.last = bucket
		return percent, true
	}
	return percent, false
}
