// Package followup implements the follow-up decision engine (C5): a
// pure function over the latest answer and the prior follow-up answers
// for the same parent question. It never mutates state.
package followup

import (
	"sort"

	"github.com/candidflow/interviewer/pkg/interview"
)

const (
	ReasonMaxFollowupsReached = "max_followups_reached"
	ReasonQualityThresholdMet = "quality_threshold_met"
	ReasonNoConfirmedGaps     = "no_confirmed_gaps"
	ReasonGapsRemain          = "gaps_remain"
)

// Config holds the two policy knobs this engine reads (spec §6.4); the
// per-question cap of 3 is domain-hard and is not configurable here.
type Config struct {
	SimilarityQualityThreshold float64
	MaxFollowupsPerInterview   int
}

// DefaultConfig matches spec §6.4's documented defaults.
func DefaultConfig() Config {
	return Config{SimilarityQualityThreshold: 0.8, MaxFollowupsPerInterview: 15}
}

// Decision is the engine's verdict for the latest answer.
type Decision struct {
	NeedsFollowup  bool
	Reason         string
	Count          int
	CumulativeGaps []string
}

// Decide applies the break conditions from spec §4.4 in order; the
// first match wins. priorAnswersForParent must be ordered oldest-first
// and must NOT include latestAnswer. totalFollowupsSoFar is the
// interview-wide follow-up count, used for the §5 global cap
// short-circuit (a defence for external LLM quotas, not a domain
// invariant).
func Decide(cfg Config, latestAnswer *interview.Answer, priorAnswersForParent []*interview.Answer, totalFollowupsSoFar int) Decision {
	count := len(priorAnswersForParent)

	if count >= 3 {
		return Decision{NeedsFollowup: false, Reason: ReasonMaxFollowupsReached, Count: count}
	}

	if cfg.MaxFollowupsPerInterview > 0 && totalFollowupsSoFar >= cfg.MaxFollowupsPerInterview {
		return Decision{NeedsFollowup: false, Reason: ReasonMaxFollowupsReached, Count: count}
	}

	if latestAnswer.Similarity >= cfg.SimilarityQualityThreshold {
		return Decision{NeedsFollowup: false, Reason: ReasonQualityThresholdMet, Count: count}
	}

	if !latestAnswer.Gaps.Confirmed || len(latestAnswer.Gaps.Concepts) == 0 {
		return Decision{NeedsFollowup: false, Reason: ReasonNoConfirmedGaps, Count: count}
	}

	gaps := confirmedConceptSet(latestAnswer)
	for _, prior := range priorAnswersForParent {
		for concept := range confirmedConceptSet(prior) {
			gaps[concept] = struct{}{}
		}
	}

	return Decision{
		NeedsFollowup:  true,
		Reason:         ReasonGapsRemain,
		Count:          count,
		CumulativeGaps: sortedKeys(gaps),
	}
}

func confirmedConceptSet(a *interview.Answer) map[string]struct{} {
	set := map[string]struct{}{}
	if !a.Gaps.Confirmed {
		return set
	}
	for _, c := range a.Gaps.Concepts {
		set[c] = struct{}{}
	}
	return set
}

// sortedKeys returns the set's members in a deterministic order so
// Decision.CumulativeGaps is stable across calls.
func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
