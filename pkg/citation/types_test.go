package citation

import "testing"

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"identical", Span{10, 20}, Span{10, 20}, true},
		{"partial overlap", Span{10, 20}, Span{15, 25}, true},
		{"adjacent, not overlapping", Span{10, 20}, Span{20, 30}, false},
		{"disjoint", Span{10, 20}, Span{30, 40}, false},
		{"contained", Span{10, 30}, Span{15, 20}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Span(%v).Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSpanLen(t *testing.T) {
	s := Span{Start: 10, End: 23}
	if got := s.Len(); got != 13 {
		t.Errorf("Span.Len() = %d, want 13", got)
	}
}

func TestAlternateSourceName(t *testing.T) {
	got := AlternateSourceName("courtlistener")
	want := VerificationSource("alternate_source_courtlistener")
	if got != want {
		t.Errorf("AlternateSourceName() = %q, want %q", got, want)
	}
}

func TestVerificationFailureError(t *testing.T) {
	f := &VerificationFailure{CitationText: "183 Wn.2d 649", Kind: FailureNameMismatch}
	if got, want := f.Error(), "name_mismatch: 183 Wn.2d 649"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	f.Detail = "similarity=0.42"
	if got, want := f.Error(), "name_mismatch: 183 Wn.2d 649 (similarity=0.42)"; got != want {
		t.Errorf("Error() with detail = %q, want %q", got, want)
	}
}
