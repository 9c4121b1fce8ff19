package triage

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// SpecialtyTagger maps free-text findings to the specialty tags hospitals
// advertise.
type SpecialtyTagger struct {
	rules map[string]*Keywords
	order []string
}

// DefaultSpecialtyRules is the keyword table used by NewSpecialtyTagger when no
// rules are supplied. Keywords match whole words; a trailing "*" marks a stem
// that matches any word starting with it.
var DefaultSpecialtyRules = map[string][]string{
	"Cardiology":       {"chest pain", "heart attack", "cardiac", "palpitation", "arrhythmia", "myocardial"},
	"Neurology":        {"stroke", "seizure", "facial droop", "slurred speech", "paralysis", "unconscious"},
	"Neurosurgery":     {"head injury", "skull fracture", "brain bleed"},
	"Orthopedics":      {"fracture", "broken bone", "dislocation", "sprain"},
	"Trauma":           {"trauma", "accident", "collision", "fall from", "gunshot", "stab", "stabbed", "stab wound", "polytrauma", "severe bleeding"},
	"Burns":            {"burn", "scald", "electrocution"},
	"Pulmonology":      {"difficulty breathing", "asthma", "shortness of breath", "copd", "wheez*"},
	"Obstetrics":       {"pregnan*", "labour", "labor pain", "contraction", "antepartum"},
	"Pediatrics":       {"child", "infant", "baby", "toddler", "newborn"},
	"Toxicology":       {"overdose", "poison", "snake bite", "ingestion"},
	"Nephrology":       {"kidney", "dialysis", "renal"},
	"Gastroenterology": {"abdominal pain", "vomiting blood", "gi bleed"},
}

// NewSpecialtyTagger creates a tagger. A nil rule table selects the defaults.
func NewSpecialtyTagger(rules map[string][]string) *SpecialtyTagger {
	if rules == nil {
		rules = DefaultSpecialtyRules
	}

	order := make([]string, 0, len(rules))
	compiled := make(map[string]*Keywords, len(rules))
	for specialty, keywords := range rules {
		order = append(order, specialty)
		compiled[specialty] = CompileKeywords(keywords)
	}
	sort.Strings(order)

	return &SpecialtyTagger{rules: compiled, order: order}
}

// Tag returns the specialties whose keywords appear in the text, sorted by
// name.
func (t *SpecialtyTagger) Tag(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	var tags []string
	for _, specialty := range t.order {
		if len(t.rules[specialty].Match(normalized)) > 0 {
			tags = append(tags, specialty)
		}
	}
	return tags
}

// Merge appends the tags in extra that are not already in tags (compared
// case-insensitively), preserving order.
func Merge(tags, extra []string) []string {
	seen := make(map[string]bool, len(tags)+len(extra))
	merged := make([]string, 0, len(tags)+len(extra))
	for _, list := range [][]string{tags, extra} {
		for _, tag := range list {
			key := Normalize(tag)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, strings.TrimSpace(tag))
		}
	}
	return merged
}

// Keywords is a compiled keyword list. Each keyword matches on word
// boundaries, so "stab" does not fire inside "stable" nor "burn" inside
// "heartburn". Plural and past-tense endings (-s, -es, -d, -ed, -ing) are
// accepted; a keyword ending in "*" is a stem and matches any word that starts
// with it.
type Keywords struct {
	words    []string
	patterns []*regexp.Regexp
}

// CompileKeywords normalizes and compiles a keyword list. Empty entries are
// skipped.
func CompileKeywords(keywords []string) *Keywords {
	k := &Keywords{}
	for _, raw := range keywords {
		stem := strings.HasSuffix(strings.TrimSpace(raw), "*")
		word := Normalize(strings.TrimSuffix(strings.TrimSpace(raw), "*"))
		if word == "" {
			continue
		}
		suffix := `(?:s|es|d|ed|ing)?\b`
		if stem {
			suffix = `\w*`
		}
		k.words = append(k.words, word)
		k.patterns = append(k.patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(word)+suffix))
	}
	return k
}

// Match returns the keywords found in an already normalized text.
func (k *Keywords) Match(text string) []string {
	var hits []string
	for i, re := range k.patterns {
		if re.MatchString(text) {
			hits = append(hits, k.words[i])
		}
	}
	return hits
}

// Remove blanks out every keyword occurrence in text.
func (k *Keywords) Remove(text string) string {
	for _, re := range k.patterns {
		text = re.ReplaceAllString(text, " ")
	}
	return text
}

// Normalize applies NFKC normalization and case folding, drops control
// characters and collapses whitespace.
func Normalize(text string) string {
	normed := norm.NFKC.String(text)
	normed = cases.Fold().String(normed)
	normed = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, normed)
	return strings.Join(strings.Fields(normed), " ")
}
