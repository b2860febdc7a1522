// Package extractor implements the Core's reporter-aware citation scanner
// (spec §4.2): it recovers citation spans, reporter metadata, and the
// case-name/year context around each one, all bound to the original input
// text.
package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/citationengine/engine/pkg/citation"
	"github.com/citationengine/engine/pkg/reporter"
)

const (
	leftWindowChars  = 200
	rightWindowChars = 50
	fallbackYearChars = 15
)

// caseNamePattern matches the "... v. ..." form a case name takes, anchored
// to a capitalized party name on both sides of "v.".
var caseNamePattern = regexp.MustCompile(`[A-Z][\w.,&'-]*(?:\s+[\w.,&'-]+)*\s+v\.\s+[A-Z][\w.,&'-]*(?:\s+[\w.,&'-]+)*`)

// parenYearPattern matches a four-digit year in parentheses, e.g. "(2015)".
var parenYearPattern = regexp.MustCompile(`\((\d{4})\)`)

// bareYearPattern matches a bare four-digit year, used as a fallback when no
// parenthesized year is present nearby.
var bareYearPattern = regexp.MustCompile(`\d{4}`)

// signalWords are stripped from the left edge of an extracted case name
// (spec §4.2 edge-case policies).
var signalWords = []string{
	"but see", "see also", "see, e.g.,", "see", "e.g.,", "e.g.", "accord",
	"cf.", "quoting", "citing", "compare",
}

// statutePatterns identify statute citations, which have their own pattern
// family and must never be emitted as case citations (spec §4.2 step 5).
var statutePatterns = []*regexp.Regexp{
	regexp.MustCompile(`RCW\s+\d+(?:\.\d+){1,2}`),
	regexp.MustCompile(`\d+\s+U\.S\.C\.?\s*§*\s*\d+`),
}

// Extract produces the set of citations found in text, with spans, reporter
// metadata, and context-derived extracted_case_name/extracted_date. It is
// deterministic and idempotent: repeated calls on identical text yield
// byte-identical output in document order.
func Extract(text string) []*citation.Citation {
	candidates := scan(text)
	candidates = dedupeBySpan(candidates)
	candidates = dropStatutes(text, candidates)

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Span.Start < candidates[j].Span.Start
	})

	citations := make([]*citation.Citation, 0, len(candidates))
	for _, c := range candidates {
		caseName, date := extractContext(text, c.Span)
		citations = append(citations, &citation.Citation{
			Text:              text[c.Span.Start:c.Span.End],
			Span:              c.Span,
			Reporter:          c.Tag,
			Volume:            c.Volume,
			Page:              c.Page,
			ExtractedCaseName: caseName,
			ExtractedDate:     date,
			JurisdictionHint:  reporter.JurisdictionFor(c.Tag),
			Verified:          citation.Unverified,
		})
	}
	return citations
}

// candidate is an intermediate match before context extraction.
type candidate struct {
	Span   citation.Span
	Tag    string
	Family reporter.PriorityFamily
	Volume int
	Page   int
}

func scan(text string) []candidate {
	var all []candidate
	for _, p := range reporter.Patterns {
		names := p.Regex.SubexpNames()
		for _, m := range p.Regex.FindAllStringSubmatchIndex(text, -1) {
			groups := make(map[string]string, len(names))
			for i, n := range names {
				if n == "" || m[2*i] < 0 {
					continue
				}
				groups[n] = text[m[2*i]:m[2*i+1]]
			}
			vol := reporter.ParseInt(groups["volume"])
			pg := reporter.ParseInt(groups["page"])
			if vol == 0 || pg == 0 {
				continue // syntactically invalid for this family
			}
			all = append(all, candidate{
				Span:   citation.Span{Start: m[0], End: m[1]},
				Tag:    p.Tag,
				Family: p.Family,
				Volume: vol,
				Page:   pg,
			})
		}
	}
	return all
}

// dedupeBySpan resolves overlapping matches: the longer span wins; ties
// break by pattern priority (neutral > official > regional > commercial).
func dedupeBySpan(candidates []candidate) []candidate {
	ranked := make([]candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		li, lj := ranked[i].Span.Len(), ranked[j].Span.Len()
		if li != lj {
			return li > lj
		}
		return ranked[i].Family > ranked[j].Family
	})

	var kept []candidate
	for _, c := range ranked {
		overlaps := false
		for _, k := range kept {
			if c.Span.Overlaps(k.Span) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

// dropStatutes removes candidates whose span falls inside a statute
// citation match (spec §4.2 step 5); this is a defensive guard since the
// reporter patterns are not shaped to match statute citations in the first
// place.
func dropStatutes(text string, candidates []candidate) []candidate {
	var statuteSpans []citation.Span
	for _, sp := range statutePatterns {
		for _, m := range sp.FindAllStringIndex(text, -1) {
			statuteSpans = append(statuteSpans, citation.Span{Start: m[0], End: m[1]})
		}
	}
	if len(statuteSpans) == 0 {
		return candidates
	}

	kept := candidates[:0]
	for _, c := range candidates {
		inStatute := false
		for _, s := range statuteSpans {
			if c.Span.Start >= s.Start && c.Span.End <= s.End {
				inStatute = true
				break
			}
		}
		if !inStatute {
			kept = append(kept, c)
		}
	}
	return kept
}

// extractContext derives extracted_case_name and extracted_date for the
// citation at span, using the left/right context windows bound to the
// original text.
func extractContext(text string, span citation.Span) (caseName string, year string) {
	leftLo := span.Start - leftWindowChars
	if leftLo < 0 {
		leftLo = 0
	}
	leftWindow := clipLeft(text[leftLo:span.Start])

	rightHi := span.End + rightWindowChars
	if rightHi > len(text) {
		rightHi = len(text)
	}
	rightWindow := clipRight(text[span.End:rightHi])

	caseName = extractCaseName(leftWindow)
	caseName = stripSignalWords(caseName)
	caseName = trimTrailingCitation(caseName)
	year = extractYear(rightWindow)
	return caseName, year
}

// clipLeft trims window to the text after the rightmost sentence
// terminator that is preceded by whitespace, so a prior sentence does not
// leak into the case-name search.
func clipLeft(window string) string {
	cut := -1
	for i := 0; i+1 < len(window); i++ {
		if isSpace(window[i]) && isTerminator(window[i+1]) {
			cut = i + 1
		}
	}
	if cut == -1 {
		return window
	}
	return window[cut+1:]
}

// clipRight trims window to the text before the first sentence terminator
// that is preceded by whitespace.
func clipRight(window string) string {
	for i := 0; i+1 < len(window); i++ {
		if isSpace(window[i]) && isTerminator(window[i+1]) {
			return window[:i]
		}
	}
	return window
}

func isSpace(b byte) bool      { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }
func isTerminator(b byte) bool { return b == '.' || b == '!' || b == '?' }

// extractCaseName returns the "... v. ..." match closest to the citation
// (the last match in the left window), or "" if none is found.
func extractCaseName(leftWindow string) string {
	// Case names can span line breaks in the source; normalize them to
	// spaces for the matcher only, the caller never sees this copy.
	normalized := strings.Join(strings.Fields(leftWindow), " ")
	matches := caseNamePattern.FindAllString(normalized, -1)
	if len(matches) == 0 {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(matches[len(matches)-1]), ", ")
}

func stripSignalWords(name string) string {
	if name == "" {
		return name
	}
	lower := strings.ToLower(name)
	for _, w := range signalWords {
		if strings.HasPrefix(lower, w) {
			return strings.TrimSpace(name[len(w):])
		}
	}
	return name
}

// trimTrailingCitation re-runs the reporter patterns over a captured case
// name and truncates at the first match, so a leaked trailing citation
// token (e.g. "Case v. Name, 123 U.S. 456") does not pollute the name.
func trimTrailingCitation(name string) string {
	earliest := -1
	for _, p := range reporter.Patterns {
		if loc := p.Regex.FindStringIndex(name); loc != nil {
			if earliest == -1 || loc[0] < earliest {
				earliest = loc[0]
			}
		}
	}
	if earliest == -1 {
		return name
	}
	return strings.TrimRight(strings.TrimSpace(name[:earliest]), ", ")
}

// extractYear returns the parenthesized year if present, else a bare year
// within the first fallbackYearChars of the right window, else "".
func extractYear(rightWindow string) string {
	if m := parenYearPattern.FindStringSubmatch(rightWindow); m != nil {
		return m[1]
	}
	limit := rightWindow
	if len(limit) > fallbackYearChars {
		limit = limit[:fallbackYearChars]
	}
	return bareYearPattern.FindString(limit)
}
