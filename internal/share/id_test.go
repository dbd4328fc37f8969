package share

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in, prefix, id string
	}{
		{"s3-abc123", "s3", "abc123"},
		{"g-a-b", "g", "a-b"},
		{"abc", "", "abc"},
		{"-abc", "", "-abc"},
		{"", "", ""},
		{"zz-", "zz", ""},
	}
	for _, tt := range tests {
		p, id := Parse(tt.in)
		if p != tt.prefix || id != tt.id {
			t.Fatalf("Parse(%q) = (%q, %q), want (%q, %q)", tt.in, p, id, tt.prefix, tt.id)
		}
	}
}

func TestComposeParseRoundTrip(t *testing.T) {
	for _, prefix := range []string{"s3", "g", "local", "x"} {
		for _, id := range []string{"abc", "a-b-c", "0", "ZzZ9", ""} {
			p, got := Parse(Compose(prefix, id))
			if p != prefix || got != id {
				t.Fatalf("round trip (%q, %q) gave (%q, %q)", prefix, id, p, got)
			}
		}
	}
}
