package youtube

import "testing"

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		err  bool
	}{
		{"PT45S", 45, false},
		{"PT12M34S", 754, false},
		{"PT1H2M3S", 3723, false},
		{"P1DT1S", 86401, false},
		{"P0D", 0, false},
		{"", 0, false},
		{"1:02:03", 0, true},
	}

	for _, tt := range tests {
		got, err := parseISODuration(tt.in)
		if (err != nil) != tt.err {
			t.Fatalf("parseISODuration(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseISODuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPlainText(t *testing.T) {
	in := `Great tip at <a href="https://www.youtube.com/watch?v=x&amp;t=83">1:23</a><br>thanks &amp; bye`
	want := "Great tip at 1:23\nthanks & bye"
	if got := plainText(in); got != want {
		t.Fatalf("plainText() = %q, want %q", got, want)
	}
	if got := plainText("   "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
