package cluster

import (
	"sort"

	"github.com/citationengine/engine/pkg/citation"
)

// CountSplits reports how many of clusters have members whose verified
// canonical_name values disagree, i.e. how many SplitByCanonical would
// divide. Callers use this to record the cluster-splits metric before the
// split transforms the slice.
func CountSplits(clusters []*citation.Cluster) int {
	n := 0
	for _, cl := range clusters {
		if len(distinctCanonicalNames(cl)) > 1 {
			n++
		}
	}
	return n
}

// SplitByCanonical implements spec §4.6, the only post-verification
// modification permitted to cluster membership: if a cluster's verified
// members disagree on canonical_name, it is split into one sub-cluster per
// distinct name. Members with no canonical data attach to whichever
// sub-cluster has the closest verified member by span distance, ties
// broken by earlier position.
func SplitByCanonical(clusters []*citation.Cluster) []*citation.Cluster {
	var result []*citation.Cluster

	for _, cl := range clusters {
		names := distinctCanonicalNames(cl)
		if len(names) <= 1 {
			result = append(result, cl)
			continue
		}

		subByName := map[string]*citation.Cluster{}
		var order []string
		for _, m := range cl.Members {
			if m.CanonicalName == "" {
				continue
			}
			if _, ok := subByName[m.CanonicalName]; !ok {
				order = append(order, m.CanonicalName)
				subByName[m.CanonicalName] = &citation.Cluster{
					ClusterType:   citation.ClusterSplitByCanonical,
					CanonicalName: m.CanonicalName,
					CanonicalDate: m.CanonicalDate,
					CanonicalURL:  m.CanonicalURL,
				}
			}
			subByName[m.CanonicalName].Members = append(subByName[m.CanonicalName].Members, m)
		}

		for _, m := range cl.Members {
			if m.CanonicalName != "" {
				continue
			}
			best := order[0]
			bestDist := -1
			for _, name := range order {
				d := minSpanDistance(m, subByName[name].Members)
				if bestDist == -1 || d < bestDist {
					bestDist = d
					best = name
				}
			}
			subByName[best].Members = append(subByName[best].Members, m)
		}

		for _, name := range order {
			sub := subByName[name]
			sort.Slice(sub.Members, func(i, j int) bool {
				return sub.Members[i].Span.Start < sub.Members[j].Span.Start
			})
			result = append(result, sub)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return minStart(result[i]) < minStart(result[j])
	})
	assignIDs(result, "c")
	for _, cl := range result {
		for _, m := range cl.Members {
			m.ClusterID = cl.ID
		}
	}
	return result
}

func distinctCanonicalNames(cl *citation.Cluster) map[string]struct{} {
	names := map[string]struct{}{}
	for _, m := range cl.Members {
		if m.CanonicalName != "" {
			names[m.CanonicalName] = struct{}{}
		}
	}
	return names
}

func minSpanDistance(m *citation.Citation, members []*citation.Citation) int {
	best := -1
	for _, other := range members {
		d := m.Span.Start - other.Span.Start
		if d < 0 {
			d = -d
		}
		if best == -1 || d < best {
			best = d
		}
	}
	return best
}
