package cluster

import "github.com/citationengine/engine/pkg/citation"

// PropagateContext implements spec §4.4: within each cluster, propagate
// extracted_case_name and extracted_date to members missing them, provided
// at least one member has a confident value. A conflict between two
// non-empty values on different members leaves each member's own value
// untouched and flags the cluster ambiguous_context for the verifier.
func PropagateContext(clusters []*citation.Cluster) {
	for _, cl := range clusters {
		propagateNames(cl)
		propagateDates(cl)
	}
}

func propagateNames(cl *citation.Cluster) {
	var agreed string
	conflict := false
	for _, m := range cl.Members {
		if m.ExtractedCaseName == "" {
			continue
		}
		if agreed == "" {
			agreed = m.ExtractedCaseName
		} else if !namesAgree(agreed, m.ExtractedCaseName) {
			conflict = true
		}
	}
	if conflict {
		cl.AmbiguousContext = true
		return
	}
	if agreed == "" {
		return
	}
	for _, m := range cl.Members {
		if m.ExtractedCaseName == "" {
			m.ExtractedCaseName = agreed
		}
	}
}

func propagateDates(cl *citation.Cluster) {
	var agreed string
	conflict := false
	for _, m := range cl.Members {
		if m.ExtractedDate == "" {
			continue
		}
		if agreed == "" {
			agreed = m.ExtractedDate
		} else if agreed != m.ExtractedDate {
			conflict = true
		}
	}
	if conflict {
		cl.AmbiguousContext = true
		return
	}
	if agreed == "" {
		return
	}
	for _, m := range cl.Members {
		if m.ExtractedDate == "" {
			m.ExtractedDate = agreed
		}
	}
}
