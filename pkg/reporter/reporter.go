// Package reporter owns the regex patterns for every supported reporter
// family (spec §4.2 step 1): US Reports, Supreme Court Reporter, Lawyers'
// Edition, Federal Reporter 2d/3d/4th, the regional reporters, state
// official reporters, Westlaw weekly, and neutral citations.
package reporter

import (
	"regexp"
	"strconv"
)

// PriorityFamily ranks a Pattern for span-dedup tie-breaking when two
// patterns match overlapping spans (spec §4.2 step 3): neutral > official
// > regional > commercial.
type PriorityFamily int

const (
	FamilyCommercial PriorityFamily = iota
	FamilyRegional
	FamilyOfficial
	FamilyNeutral
)

// Pattern is one compiled reporter-family matcher.
type Pattern struct {
	// Tag is the reporter label recorded on a Citation, e.g. "Wn.2d".
	Tag string
	// Family ranks this pattern for dedup priority.
	Family PriorityFamily
	// Jurisdiction is this reporter's derived jurisdiction hint, e.g.
	// "Washington" for Wn.2d, "" for reporters with no fixed jurisdiction
	// (federal reporters accept any federal court; see the match
	// acceptance filter in pkg/verify).
	Jurisdiction string
	// Federal marks reporters that carry federal, not state, jurisdiction.
	Federal bool
	// Regex must expose named capture groups "volume" and "page"; a
	// "pincite" group is optional.
	Regex *regexp.Regexp
}

// Patterns is the full, ordered set of reporter matchers. Order does not
// affect correctness, since every pattern is scanned independently, but
// groups related families for readability.
var Patterns = []Pattern{
	// Neutral citations: court-assigned, reporter-independent, e.g.
	// "2017-NM-007".
	{
		Tag:    "neutral",
		Family: FamilyNeutral,
		Regex:  regexp.MustCompile(`(?P<volume>\d{4})-(?P<court>[A-Z]{1,4})-(?P<page>\d{3,5})`),
	},

	// US Reports, Supreme Court Reporter, Lawyers' Edition: official and
	// quasi-official federal reporters.
	{
		Tag:     "U.S.",
		Family:  FamilyOfficial,
		Federal: true,
		Regex:   regexp.MustCompile(`(?P<volume>\d{1,3})\s+U\.\s?S\.\s+(?P<page>\d{1,4})`),
	},
	{
		Tag:     "S. Ct.",
		Family:  FamilyOfficial,
		Federal: true,
		Regex:   regexp.MustCompile(`(?P<volume>\d{1,3})\s+S\.\s?Ct\.\s+(?P<page>\d{1,4})`),
	},
	{
		Tag:     "L. Ed. 2d",
		Family:  FamilyOfficial,
		Federal: true,
		Regex:   regexp.MustCompile(`(?P<volume>\d{1,3})\s+L\.\s?Ed\.\s?2d\s+(?P<page>\d{1,4})`),
	},

	// Federal Reporter 2d/3d/4th: federal appellate.
	{
		Tag:     "F.2d",
		Family:  FamilyOfficial,
		Federal: true,
		Regex:   regexp.MustCompile(`(?P<volume>\d{1,3})\s+F\.2d\s+(?P<page>\d{1,4})`),
	},
	{
		Tag:     "F.3d",
		Family:  FamilyOfficial,
		Federal: true,
		Regex:   regexp.MustCompile(`(?P<volume>\d{1,3})\s+F\.3d\s+(?P<page>\d{1,4})`),
	},
	{
		Tag:     "F.4th",
		Family:  FamilyOfficial,
		Federal: true,
		Regex:   regexp.MustCompile(`(?P<volume>\d{1,3})\s+F\.4th\s+(?P<page>\d{1,4})`),
	},

	// Regional reporters (National Reporter System).
	{Tag: "P.", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+P\.\s+(?P<page>\d{1,4})`)},
	{Tag: "P.2d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+P\.2d\s+(?P<page>\d{1,4})`)},
	{Tag: "P.3d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+P\.3d\s+(?P<page>\d{1,4})`)},
	{Tag: "A.", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+A\.\s+(?P<page>\d{1,4})`)},
	{Tag: "A.2d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+A\.2d\s+(?P<page>\d{1,4})`)},
	{Tag: "A.3d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+A\.3d\s+(?P<page>\d{1,4})`)},
	{Tag: "N.E.", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+N\.E\.\s+(?P<page>\d{1,4})`)},
	{Tag: "N.E.2d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+N\.E\.2d\s+(?P<page>\d{1,4})`)},
	{Tag: "N.W.", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+N\.W\.\s+(?P<page>\d{1,4})`)},
	{Tag: "N.W.2d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+N\.W\.2d\s+(?P<page>\d{1,4})`)},
	{Tag: "S.E.", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+S\.E\.\s+(?P<page>\d{1,4})`)},
	{Tag: "S.E.2d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+S\.E\.2d\s+(?P<page>\d{1,4})`)},
	{Tag: "S.W.", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+S\.W\.\s+(?P<page>\d{1,4})`)},
	{Tag: "S.W.2d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+S\.W\.2d\s+(?P<page>\d{1,4})`)},
	{Tag: "S.W.3d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+S\.W\.3d\s+(?P<page>\d{1,4})`)},
	{Tag: "So.", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+So\.\s+(?P<page>\d{1,4})`)},
	{Tag: "So.2d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+So\.2d\s+(?P<page>\d{1,4})`)},
	{Tag: "So.3d", Family: FamilyRegional, Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+So\.3d\s+(?P<page>\d{1,4})`)},

	// State official reporters. Washington is the worked example from the
	// spec; others follow the same volume/page shape.
	{Tag: "Wn.", Family: FamilyOfficial, Jurisdiction: "Washington", Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+Wn\.\s+(?P<page>\d{1,4})`)},
	{Tag: "Wn.2d", Family: FamilyOfficial, Jurisdiction: "Washington", Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+Wn\.2d\s+(?P<page>\d{1,4})`)},
	{Tag: "Wn. App.", Family: FamilyOfficial, Jurisdiction: "Washington", Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+Wn\.\s?App\.\s+(?P<page>\d{1,4})`)},
	{Tag: "Wash.", Family: FamilyOfficial, Jurisdiction: "Washington", Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+Wash\.\s+(?P<page>\d{1,4})`)},
	{Tag: "Wash.2d", Family: FamilyOfficial, Jurisdiction: "Washington", Regex: regexp.MustCompile(`(?P<volume>\d{1,3})\s+Wash\.2d\s+(?P<page>\d{1,4})`)},

	// Westlaw weekly: commercial database citation, lowest dedup priority.
	{
		Tag:    "WL",
		Family: FamilyCommercial,
		Regex:  regexp.MustCompile(`(?P<volume>\d{4})\s+WL\s+(?P<page>\d{1,8})`),
	},
}

// patternByTag indexes Patterns for JurisdictionFor and family lookups.
var patternByTag = func() map[string]Pattern {
	m := make(map[string]Pattern, len(Patterns))
	for _, p := range Patterns {
		m[p.Tag] = p
	}
	return m
}()

// JurisdictionFor returns the jurisdiction hint for a reporter tag, e.g.
// "Wn.2d" -> "Washington". Federal reporters return "Federal"; reporters
// with no fixed jurisdiction (regional reporters, spanning many states,
// and the Westlaw/neutral catch-alls) return "".
func JurisdictionFor(tag string) string {
	p, ok := patternByTag[tag]
	if !ok {
		return ""
	}
	if p.Federal {
		return "Federal"
	}
	return p.Jurisdiction
}

// IsFederal reports whether tag identifies a federal reporter.
func IsFederal(tag string) bool {
	return patternByTag[tag].Federal
}

// ParseInt parses a matched volume/page/pincite group, returning 0 if s is
// empty or not a valid integer (callers only invoke this on groups the
// regex already constrained to digits).
func ParseInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
