package pipeline

import "time"

const (
	maxPrefixLen     = 14
	evaluationSuffix = " Quality Evaluation"
	timestampLayout  = "060102150405"
)

// EvaluationName returns the display name of an evaluation run. prefix
// defaults to now formatted as yymmddHHMMSS and is cut to 14 runes.
func EvaluationName(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = now.Format(timestampLayout)
	}
	if r := []rune(prefix); len(r) > maxPrefixLen {
		prefix = string(r[:maxPrefixLen])
	}
	return prefix + evaluationSuffix
}
