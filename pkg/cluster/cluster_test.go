package cluster

import (
	"testing"

	"github.com/citationengine/engine/pkg/citation"
	"github.com/citationengine/engine/pkg/extractor"
)

func TestCluster_ParallelWashingtonCitation(t *testing.T) {
	text := `Lopez Demetrio v. Sakuma Bros. Farms, 183 Wn.2d 649, 655, 355 P.3d 258 (2015).`
	cites := extractor.Extract(text)
	clusters := Cluster(cites, text)

	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1: %+v", len(clusters), clusters)
	}
	if len(clusters[0].Members) != 2 {
		t.Fatalf("got %d members, want 2", len(clusters[0].Members))
	}
}

func TestCluster_ParentheticalDoesNotFuse(t *testing.T) {
	text := `State v. M.Y.G., 199 Wn.2d 528, 509 P.3d 818 (2022) (quoting Am. Legion Post No. 32 v. City of Walla Walla, 116 Wn.2d 1, 802 P.2d 784 (1991)).`
	cites := extractor.Extract(text)
	clusters := Cluster(cites, text)

	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2: %+v", len(clusters), clusters)
	}

	firstTexts := memberTexts(clusters[0])
	secondTexts := memberTexts(clusters[1])

	if !containsAll(firstTexts, "199 Wn.2d 528", "509 P.3d 818") {
		t.Errorf("first cluster members = %v, want 199 Wn.2d 528 and 509 P.3d 818", firstTexts)
	}
	if !containsAll(secondTexts, "116 Wn.2d 1", "802 P.2d 784") {
		t.Errorf("second cluster members = %v, want 116 Wn.2d 1 and 802 P.2d 784", secondTexts)
	}
}

func TestCluster_NeutralAndParallelReporter(t *testing.T) {
	text := `Hamaatsa, Inc. v. Pueblo of San Felipe, 2017-NM-007, 388 P.3d 977 (2016).`
	cites := extractor.Extract(text)
	clusters := Cluster(cites, text)

	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1: %+v", len(clusters), clusters)
	}
	if len(clusters[0].Members) != 2 {
		t.Fatalf("got %d members, want 2", len(clusters[0].Members))
	}
}

func TestCluster_SameReporterNeverParallel(t *testing.T) {
	text := `See 1 Wn.2d 1 (1950) and see also 2 Wn.2d 2 (1951).`
	cites := extractor.Extract(text)
	clusters := Cluster(cites, text)

	if len(clusters) != 2 {
		t.Fatalf("two same-reporter citations must never cluster, got %d clusters", len(clusters))
	}
}

func TestCluster_DeterministicOrdering(t *testing.T) {
	text := `Lopez Demetrio v. Sakuma Bros. Farms, 183 Wn.2d 649, 655, 355 P.3d 258 (2015).`
	cites := extractor.Extract(text)
	clusters := Cluster(cites, text)

	if clusters[0].ID != "c1" {
		t.Errorf("ClusterID = %q, want c1", clusters[0].ID)
	}
	if clusters[0].Members[0].Span.Start >= clusters[0].Members[1].Span.Start {
		t.Errorf("members not ordered by span start")
	}
	for _, m := range clusters[0].Members {
		if m.ClusterID != clusters[0].ID {
			t.Errorf("member ClusterID = %q, want %q", m.ClusterID, clusters[0].ID)
		}
	}
}

func TestCrossesParentheticalBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"no parens", ", ", false},
		{"balanced paren", " (2022) ", false},
		{"unclosed paren", " (quoting ", true},
		{"unopened close", ") ", true},
		{"nested paren", " (outer (inner) ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := crossesParentheticalBoundary(tt.in); got != tt.want {
				t.Errorf("crossesParentheticalBoundary(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPropagateContext(t *testing.T) {
	a := &citation.Citation{Text: "1 U.S. 1", ExtractedCaseName: "Brown v. Board", ExtractedDate: "1954"}
	b := &citation.Citation{Text: "2 F.2d 2"}
	cl := &citation.Cluster{Members: []*citation.Citation{a, b}}

	PropagateContext([]*citation.Cluster{cl})

	if b.ExtractedCaseName != "Brown v. Board" {
		t.Errorf("b.ExtractedCaseName = %q, want propagated value", b.ExtractedCaseName)
	}
	if b.ExtractedDate != "1954" {
		t.Errorf("b.ExtractedDate = %q, want propagated 1954", b.ExtractedDate)
	}
	if cl.AmbiguousContext {
		t.Error("cluster should not be flagged ambiguous when there is no conflict")
	}
}

func TestPropagateContext_Conflict(t *testing.T) {
	a := &citation.Citation{Text: "1 U.S. 1", ExtractedCaseName: "Brown v. Board"}
	b := &citation.Citation{Text: "2 F.2d 2", ExtractedCaseName: "Smith v. Jones"}
	cl := &citation.Cluster{Members: []*citation.Citation{a, b}}

	PropagateContext([]*citation.Cluster{cl})

	if !cl.AmbiguousContext {
		t.Error("cluster should be flagged ambiguous on a name conflict")
	}
	if a.ExtractedCaseName != "Brown v. Board" || b.ExtractedCaseName != "Smith v. Jones" {
		t.Error("conflicting members should keep their own values")
	}
}

func TestSplitByCanonical_Unchanged(t *testing.T) {
	a := &citation.Citation{Text: "1 U.S. 1", CanonicalName: "Brown v. Board"}
	b := &citation.Citation{Text: "2 F.2d 2", CanonicalName: "Brown v. Board"}
	cl := &citation.Cluster{ID: "c1", Members: []*citation.Citation{a, b}, ClusterType: citation.ClusterProximityBased}

	result := SplitByCanonical([]*citation.Cluster{cl})
	if len(result) != 1 {
		t.Fatalf("got %d clusters, want 1 (unchanged)", len(result))
	}
}

func TestSplitByCanonical_SplitsOnConflict(t *testing.T) {
	a := &citation.Citation{Span: citation.Span{Start: 0, End: 5}, Text: "1 U.S. 1", CanonicalName: "Brown v. Board"}
	b := &citation.Citation{Span: citation.Span{Start: 10, End: 15}, Text: "2 U.S. 2", CanonicalName: "Smith v. Jones"}
	cl := &citation.Cluster{ID: "c1", Members: []*citation.Citation{a, b}, ClusterType: citation.ClusterProximityBased}

	result := SplitByCanonical([]*citation.Cluster{cl})
	if len(result) != 2 {
		t.Fatalf("got %d clusters, want 2", len(result))
	}
	for _, c := range result {
		if c.ClusterType != citation.ClusterSplitByCanonical {
			t.Errorf("ClusterType = %q, want split_by_canonical", c.ClusterType)
		}
		if len(c.Members) != 1 {
			t.Errorf("expected 1 member per split cluster, got %d", len(c.Members))
		}
	}
}

func TestSplitByCanonical_UnverifiedAttachesToNearest(t *testing.T) {
	a := &citation.Citation{Span: citation.Span{Start: 0, End: 5}, Text: "1 U.S. 1", CanonicalName: "Brown v. Board"}
	unverified := &citation.Citation{Span: citation.Span{Start: 8, End: 13}, Text: "2 F.2d 2"}
	b := &citation.Citation{Span: citation.Span{Start: 100, End: 105}, Text: "3 U.S. 3", CanonicalName: "Smith v. Jones"}
	cl := &citation.Cluster{ID: "c1", Members: []*citation.Citation{a, unverified, b}, ClusterType: citation.ClusterProximityBased}

	result := SplitByCanonical([]*citation.Cluster{cl})
	if len(result) != 2 {
		t.Fatalf("got %d clusters, want 2", len(result))
	}
	// unverified sits closer to a (distance 8) than to b (distance 92).
	foundWithUnverified := false
	for _, c := range result {
		if c.CanonicalName == "Brown v. Board" {
			if len(c.Members) != 2 {
				t.Errorf("Brown v. Board cluster should have absorbed the unverified member, got %d members", len(c.Members))
			}
			foundWithUnverified = true
		}
	}
	if !foundWithUnverified {
		t.Error("expected to find the Brown v. Board sub-cluster")
	}
}

func memberTexts(cl *citation.Cluster) []string {
	var out []string
	for _, m := range cl.Members {
		out = append(out, m.Text)
	}
	return out
}

func containsAll(haystack []string, needles ...string) bool {
	set := map[string]bool{}
	for _, h := range haystack {
		set[h] = true
	}
	for _, n := range needles {
		if !set[n] {
			return false
		}
	}
	return true
}
