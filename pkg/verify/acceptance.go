package verify

import (
	"strconv"
	"strings"

	"github.com/citationengine/engine/pkg/citation"
	"github.com/citationengine/engine/pkg/similarity"
)

const (
	nameSimilarityThreshold = 0.6
	maxYearDistance         = 2
)

// AcceptCandidate implements the match acceptance filter (spec §4.5): an
// authority-returned candidate is accepted only if jurisdiction, name
// similarity, and year distance all check out. When the citation has no
// extracted_case_name, a candidate is accepted only if it is the sole
// candidate returned and its jurisdiction matches.
func AcceptCandidate(c *citation.Citation, candidate AuthorityCluster, candidateCount int) (bool, citation.FailureKind) {
	if !jurisdictionCompatible(c.JurisdictionHint, candidate.Jurisdiction) {
		return false, citation.FailureJurisdictionMismatch
	}

	if c.ExtractedCaseName == "" {
		if candidateCount != 1 {
			return false, citation.FailureNameMismatch
		}
		return true, ""
	}

	if !similarity.NameMatches(c.ExtractedCaseName, candidate.CaseName) {
		return false, citation.FailureNameMismatch
	}

	if c.ExtractedDate != "" {
		extractedYear := parseYear(c.ExtractedDate)
		candidateYear := parseYear(candidate.DateFiled)
		if extractedYear != 0 && candidateYear != 0 {
			dist := extractedYear - candidateYear
			if dist < 0 {
				dist = -dist
			}
			if dist > maxYearDistance {
				return false, citation.FailureDateMismatch
			}
		}
	}

	return true, ""
}

// jurisdictionCompatible implements spec §4.5's jurisdiction rule: a
// citation with a fixed state jurisdiction hint must match that state
// exactly; a federal reporter citation accepts any federal court, though not
// any court at all, since the candidate's own jurisdiction must still carry
// a federal marker; citations with no jurisdiction hint (regional
// reporters) accept any candidate.
func jurisdictionCompatible(hint, candidateJurisdiction string) bool {
	if hint == "" {
		return true
	}
	if hint == "Federal" {
		lower := strings.ToLower(candidateJurisdiction)
		return strings.Contains(lower, "federal") || strings.Contains(lower, "u.s.")
	}
	return strings.EqualFold(hint, candidateJurisdiction)
}

// parseYear extracts a four-digit year from an authority date string,
// which may be "YYYY-MM-DD" or a bare year.
func parseYear(dateFiled string) int {
	if len(dateFiled) < 4 {
		return 0
	}
	y, err := strconv.Atoi(dateFiled[:4])
	if err != nil {
		return 0
	}
	return y
}
