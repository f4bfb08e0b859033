package cleaner

import (
	"regexp"
	"strings"
)

// stageCodePattern matches a leading stage letter code, either bare ("e")
// or dotted ("e. Proposal Sent").
var stageCodePattern = regexp.MustCompile(`^([a-zA-Z])(\.|$)`)

// NormalizeStage expands a stage letter code into its canonical label.
// Values without a recognizable code pass through unchanged.
func NormalizeStage(lookups *Lookups, stage string) string {
	s := strings.TrimSpace(stage)
	if s == "" {
		return ""
	}
	if m := stageCodePattern.FindStringSubmatch(s); m != nil {
		if label, ok := lookups.StageMap[strings.ToLower(m[1])]; ok {
			return label
		}
	}
	return s
}

// StageGroup buckets a canonical stage label into a pipeline funnel group.
func StageGroup(stage string) string {
	if strings.TrimSpace(stage) == "" {
		return "Unknown"
	}
	s := strings.ToLower(stage)
	switch {
	case containsAny(s, "lead generated", "sales qualified"):
		return "Early Stage"
	case containsAny(s, "demo", "feasibility"):
		return "Qualification"
	case containsAny(s, "proposal", "negotiat", "poc"):
		return "Active Pursuit"
	case containsAny(s, "work order", "project won", "invoice", "amount accrued"):
		return "Won/Execution"
	case containsAny(s, "lost", "not relevant", "on hold"):
		return "Closed/Inactive"
	default:
		return "Other"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// NormalizeSector canonicalizes a sector value through the synonym lookup.
// It returns the canonical name and whether the value was recognized;
// unknown values pass through title-cased.
func NormalizeSector(lookups *Lookups, sector string) (string, bool) {
	s := strings.TrimSpace(sector)
	if s == "" {
		return "", true
	}
	if canonical, ok := lookups.SectorSynonyms[strings.ToLower(s)]; ok {
		return canonical, true
	}
	return titleCase(s), false
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
