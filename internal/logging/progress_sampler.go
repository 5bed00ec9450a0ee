package logging

import "strings"

// ProgressSampler thins a stream of progress events down to the ones worth a
// log line: stage transitions and percent-bucket crossings. It is not safe
// for concurrent use; each render loop owns its own sampler.
type ProgressSampler struct {
	step   float64
	stage  string
	bucket int
}

// NewProgressSampler returns a sampler emitting once per step percent
// (default 5) and on every stage change.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 5
	}
	return &ProgressSampler{step: step, bucket: -1}
}

// ShouldLog reports whether this event should be logged. A negative percent
// means unknown and never advances the bucket. A nil sampler passes every
// event through.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}
	emit := false
	if stage = strings.TrimSpace(stage); stage != "" && stage != s.stage {
		s.stage = stage
		s.bucket = -1
		emit = true
	}
	if percent < 0 {
		return emit
	}
	if percent > 100 {
		percent = 100
	}
	if b := int(percent / s.step); b > s.bucket {
		s.bucket = b
		emit = true
	}
	return emit
}

// Reset forgets prior stage and bucket so the next event logs again.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.stage = ""
	s.bucket = -1
}
