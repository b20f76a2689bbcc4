package policy

import (
	"reflect"
	"testing"
)

func TestScopeFor(t *testing.T) {
	p := New(map[string][]string{
		"C-ALPHA": {"alpha"},
		"C-BOTH":  {"alpha", "beta"},
		"C-NONE":  {},
	})

	t.Run("unknown conversation is unrestricted", func(t *testing.T) {
		scope := p.ScopeFor("C-UNLISTED")
		if !scope.IsUnrestricted() {
			t.Errorf("ScopeFor(unlisted) = %v, want unrestricted", scope)
		}
	})

	t.Run("listed conversation is restricted", func(t *testing.T) {
		scope := p.ScopeFor("C-ALPHA")
		if scope.IsUnrestricted() {
			t.Fatal("ScopeFor(C-ALPHA) is unrestricted, want restricted")
		}
		if got := scope.Partitions(); !reflect.DeepEqual(got, []string{"alpha"}) {
			t.Errorf("Partitions() = %v, want [alpha]", got)
		}
	})

	t.Run("empty list restricts everything", func(t *testing.T) {
		scope := p.ScopeFor("C-NONE")
		if scope.IsUnrestricted() {
			t.Fatal("ScopeFor(C-NONE) is unrestricted, want restricted")
		}
		if scope.Allows("alpha") {
			t.Error("empty restriction allows alpha")
		}
	})
}

func TestScopeAllows(t *testing.T) {
	tests := []struct {
		name      string
		scope     Scope
		partition string
		want      bool
	}{
		{"unrestricted allows partition", Unrestricted(), "alpha", true},
		{"unrestricted allows root", Unrestricted(), "", true},
		{"restricted allows listed", Restricted("alpha"), "alpha", true},
		{"restricted denies unlisted", Restricted("alpha"), "beta", false},
		{"restricted denies root", Restricted("alpha"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scope.Allows(tt.partition); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.partition, got, tt.want)
			}
		})
	}
}

func TestScopeString(t *testing.T) {
	if got := Unrestricted().String(); got != "unrestricted" {
		t.Errorf("Unrestricted().String() = %q", got)
	}
	if got := Restricted("beta", "alpha").String(); got != "alpha, beta" {
		t.Errorf("Restricted().String() = %q, want sorted list", got)
	}
}

func TestPolicyCopiesInput(t *testing.T) {
	access := map[string][]string{"C1": {"alpha"}}
	p := New(access)

	access["C1"][0] = "mutated"
	access["C2"] = []string{"beta"}

	if !p.ScopeFor("C1").Allows("alpha") {
		t.Error("policy affected by mutation of input slice")
	}
	if !p.ScopeFor("C2").IsUnrestricted() {
		t.Error("policy affected by mutation of input map")
	}
}
