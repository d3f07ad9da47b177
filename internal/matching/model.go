package matching

import "time"

// Evaluation is the single row kept per (resume, job) pair. LLM and
// rule-based sub-scores are written independently; Score and Reason are the
// display values.
type Evaluation struct {
	ResumeID        int64
	JobID           int64
	CalculateScore  *int
	CalculateReason *string
	LLMScore        *int
	LLMReason       *string
	Score           *int
	Reason          *string
	UpdatedAt       time.Time
}

// Result is one formed opinion about a pair.
type Result struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Display returns the display score and reason: the LLM opinion when present,
// else the rule-based one.
func Display(e Evaluation) (*int, *string) {
	score := e.LLMScore
	if score == nil {
		score = e.CalculateScore
	}
	reason := e.LLMReason
	if reason == nil {
		reason = e.CalculateReason
	}
	return score, reason
}
