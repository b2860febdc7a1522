// Package similarity provides the text-normalization and token-set
// comparison helpers used by the match acceptance filter (spec §4.5) to
// decide whether an authority-returned candidate name matches a citation's
// extracted case name.
package similarity

import "strings"

// signalWords are procedural-posture and cross-reference tokens that
// commonly appear in extracted case names but carry no identifying weight
// when comparing against a canonical name.
var signalWords = map[string]struct{}{
	"see":        {},
	"see also":   {},
	"cf":         {},
	"cf.":        {},
	"but":        {},
	"see, e.g.":  {},
	"accord":     {},
	"compare":    {},
	"contra":     {},
	"e.g.":       {},
	"supra":      {},
	"infra":      {},
	"id":         {},
	"id.":        {},
	"overruled":  {},
	"overruling": {},
	"aff'd":      {},
	"affirmed":   {},
	"rev'd":      {},
	"reversed":   {},
}

// honorifics are party-name titles that do not help distinguish one case
// from another and are stripped before token-set comparison.
var honorifics = map[string]struct{}{
	"mr":     {},
	"mrs":    {},
	"ms":     {},
	"dr":     {},
	"in":     {}, // "In re ..."
	"re":     {},
	"ex":     {}, // "Ex parte ..."
	"parte":  {},
	"matter": {}, // "In the Matter of ..."
	"the":    {},
	"of":     {},
	"state":  {},
	"united": {},
	"states": {},
}

// Tokenize lowercases s, splits it on non-letter/digit runs, and drops
// signal words and honorifics, returning the token set used for comparison.
func Tokenize(s string) map[string]struct{} {
	lower := strings.ToLower(s)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, skip := signalWords[f]; skip {
			continue
		}
		if _, skip := honorifics[f]; skip {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

// TokenSetSimilarity returns the Jaccard similarity (|A∩B| / |A∪B|) between
// the normalized token sets of a and b, in [0, 1]. Two empty token sets are
// considered identical (similarity 1); one empty and one non-empty set has
// similarity 0.
func TokenSetSimilarity(a, b string) float64 {
	setA := Tokenize(a)
	setB := Tokenize(b)
	return jaccard(setA, setB)
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// NameMatches reports whether extractedName matches candidateName closely
// enough to satisfy the match acceptance filter's name-similarity threshold
// (spec §4.5: token-set similarity ≥ 0.6).
func NameMatches(extractedName, candidateName string) bool {
	const threshold = 0.6
	return TokenSetSimilarity(extractedName, candidateName) >= threshold
}
