package core

import "testing"

func TestIdentRFC1459Folding(t *testing.T) {
	tests := []struct {
		a, b  string
		equal bool
	}{
		{"NickName", "nickname", true},
		{"nickname", "NICKNAME", true},
		{"NickName", "NICKNAME", true},
		{"nick[x]", "nick{x}", true},
		{`nick\x`, "nick|x", true},
		{"nick~", "nick^", true},
		{"nick1", "nick2", false},
		{"", "", false},
		{"", "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"~"+tt.b, func(t *testing.T) {
			a, b := NewIdent(tt.a), NewIdent(tt.b)
			if got := a.Equal(b); got != tt.equal {
				t.Fatalf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.equal)
			}
			if got := b.Equal(a); got != tt.equal {
				t.Fatalf("Equal(%q, %q) = %v, want %v", tt.b, tt.a, got, tt.equal)
			}
		})
	}
}

func TestIdentKeepsDisplayForm(t *testing.T) {
	id := NewIdent("Nick[Away]")
	if id.String() != "Nick[Away]" {
		t.Fatalf("unexpected display form: %q", id.String())
	}
	if id.Key() != "nick{away}" {
		t.Fatalf("unexpected key: %q", id.Key())
	}
	if id.IsZero() || !NewIdent("").IsZero() {
		t.Fatal("unexpected IsZero result")
	}
}

func TestCaseMappings(t *testing.T) {
	tests := []struct {
		mapping CaseMapping
		a, b    string
		equal   bool
	}{
		{CaseMappingASCII, "nick[x]", "nick{x}", false},
		{CaseMappingASCII, "NICK", "nick", true},
		{CaseMappingStrictRFC1459, "nick[x]", "nick{x}", true},
		{CaseMappingStrictRFC1459, "nick~", "nick^", false},
		{CaseMappingRFC1459, "nick~", "nick^", true},
	}

	for _, tt := range tests {
		t.Run(tt.mapping.String()+"/"+tt.a, func(t *testing.T) {
			if got := tt.mapping.Ident(tt.a).Equal(tt.mapping.Ident(tt.b)); got != tt.equal {
				t.Fatalf("%s: Equal(%q, %q) = %v, want %v", tt.mapping, tt.a, tt.b, got, tt.equal)
			}
		})
	}
}

func TestParseCaseMapping(t *testing.T) {
	for _, token := range []string{"rfc1459", "strict-rfc1459", "ascii", "ASCII"} {
		m, ok := ParseCaseMapping(token)
		if !ok {
			t.Fatalf("expected %q to parse", token)
		}
		if _, ok := ParseCaseMapping(m.String()); !ok {
			t.Fatalf("String() of %q does not parse back", token)
		}
	}
	if _, ok := ParseCaseMapping("rfc7613"); ok {
		t.Fatal("expected unknown mapping to be rejected")
	}
}
