// Package cluster implements the Core's document-only clustering (spec
// §4.3), context propagation (§4.4), and post-verification
// canonical-consistency split (§4.6). Clustering never consults canonical
// data: it is a property of the document, not of the authority.
package cluster

import (
	"sort"
	"strings"

	"github.com/citationengine/engine/pkg/citation"
)

const proximityThreshold = 200

// signalWords mirrors the extractor's left-edge signal-word list, used here
// to normalize extracted_case_name before the agreement test in rule (1).
var signalWords = []string{
	"but see", "see also", "see, e.g.,", "see", "e.g.,", "e.g.", "accord",
	"cf.", "quoting", "citing", "compare",
}

// Cluster groups citations that plausibly refer to the same case, based
// purely on document position, reporter compatibility, and parenthetical
// structure (spec §4.3). It never reads canonical_* fields.
func Cluster(citations []*citation.Citation, text string) []*citation.Cluster {
	n := len(citations)
	if n == 0 {
		return nil
	}

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if eligible(citations[i], citations[j], text) {
				uf.union(i, j)
			}
		}
	}

	groups := map[int][]*citation.Citation{}
	for i, c := range citations {
		root := uf.find(i)
		groups[root] = append(groups[root], c)
	}

	clusters := make([]*citation.Cluster, 0, len(groups))
	for _, members := range groups {
		sort.Slice(members, func(i, j int) bool {
			return members[i].Span.Start < members[j].Span.Start
		})
		clusters = append(clusters, &citation.Cluster{
			Members:     members,
			ClusterType: citation.ClusterProximityBased,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		return minStart(clusters[i]) < minStart(clusters[j])
	})
	assignIDs(clusters, "c")

	for _, cl := range clusters {
		for _, m := range cl.Members {
			m.ClusterID = cl.ID
		}
	}
	return clusters
}

func minStart(cl *citation.Cluster) int {
	min := cl.Members[0].Span.Start
	for _, m := range cl.Members[1:] {
		if m.Span.Start < min {
			min = m.Span.Start
		}
	}
	return min
}

func assignIDs(clusters []*citation.Cluster, prefix string) {
	for i, cl := range clusters {
		cl.ID = prefix + itoa(i+1)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// eligible implements spec §4.3 rule (1): two citations may be clustered
// iff all four conditions hold.
func eligible(a, b *citation.Citation, text string) bool {
	first, second := a, b
	if second.Span.Start < first.Span.Start {
		first, second = second, first
	}

	gap := second.Span.Start - first.Span.End
	if gap < 0 {
		gap = 0
	}
	if gap > proximityThreshold {
		return false
	}

	if first.Reporter == second.Reporter {
		return false
	}

	between := text[first.Span.End:second.Span.Start]
	if crossesParentheticalBoundary(between) {
		return false
	}

	return namesAgree(first.ExtractedCaseName, second.ExtractedCaseName)
}

// crossesParentheticalBoundary walks the text strictly between two spans
// and reports whether it represents a parenthetical boundary that must not
// be crossed: the depth ever goes negative, the final depth is nonzero, or
// the path entered a nested parenthetical.
func crossesParentheticalBoundary(between string) bool {
	depth := 0
	maxDepth := 0
	for _, r := range between {
		switch r {
		case '(':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')':
			depth--
			if depth < 0 {
				return true
			}
		}
	}
	if depth != 0 {
		return true
	}
	return maxDepth >= 2
}

// namesAgree implements the case-name agreement half of rule (1): true if
// either citation lacks a name, or both names match case-insensitively
// after stripping signal words.
func namesAgree(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return strings.EqualFold(normalizeName(a), normalizeName(b))
}

func normalizeName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, w := range signalWords {
		if strings.HasPrefix(lower, w) {
			return strings.TrimSpace(lower[len(w):])
		}
	}
	return lower
}

// unionFind is a basic disjoint-set structure for building connected
// components out of the pairwise eligibility relation.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
