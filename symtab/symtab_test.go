package symtab

import "testing"

func TestRegisterAndLookup(t *testing.T) {
	tab := New()
	idx := tab.Register("x", Variable, 3)
	if idx != 0 {
		t.Fatalf("Register() = %d, want 0", idx)
	}
	found := tab.Lookup("x")
	if found != idx {
		t.Fatalf("Lookup(x) = %d, want %d", found, idx)
	}
	if tab.Lookup("y") != -1 {
		t.Fatal("expected -1 for undeclared name")
	}
}

func TestDuplicateInSameScope(t *testing.T) {
	tab := New()
	if idx := tab.Register("x", Variable, 3); idx < 0 {
		t.Fatal("first registration should succeed")
	}
	if idx := tab.Register("x", Variable, 4); idx != -1 {
		t.Fatalf("duplicate registration = %d, want -1", idx)
	}
}

func TestShadowingAcrossScopes(t *testing.T) {
	tab := New()
	outer := tab.Register("x", Variable, 3)
	tab.EnterScope()
	inner := tab.Register("x", Variable, 4)

	if tab.Lookup("x") != inner {
		t.Fatal("expected inner declaration to shadow outer")
	}

	tab.LeaveScope()
	if tab.Lookup("x") != outer {
		t.Fatal("expected outer declaration visible again after LeaveScope")
	}
}

func TestLeaveScopeRemovesFromHashChain(t *testing.T) {
	tab := New()
	tab.EnterScope()
	tab.Register("tmp", Variable, 3)
	tab.LeaveScope()

	if tab.Exists("tmp") {
		t.Fatal("expected tmp to be gone after leaving its scope")
	}
}

func TestHistoryRetainsGoneOutOfScopeSymbols(t *testing.T) {
	tab := New()
	tab.EnterScope()
	tab.Register("tmp", Variable, 3)
	tab.LeaveScope()

	found := false
	for _, s := range tab.History() {
		if s.Name == "tmp" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected History() to retain symbols after their scope closed")
	}
}

func TestLookupCurrentScope(t *testing.T) {
	tab := New()
	tab.Register("x", Variable, 3)
	tab.EnterScope()
	if tab.LookupCurrentScope("x") != -1 {
		t.Fatal("outer declaration should not count as current scope")
	}
	tab.Register("x", Variable, 4)
	if tab.LookupCurrentScope("x") < 0 {
		t.Fatal("expected inner declaration in current scope")
	}
}

func TestLeaveScopeAtLevelZeroIsNoop(t *testing.T) {
	tab := New()
	tab.Register("x", Variable, 3)
	tab.LeaveScope()
	if !tab.Exists("x") {
		t.Fatal("leaving the top-level scope must not remove its symbols")
	}
}

func TestSetters(t *testing.T) {
	tab := New()
	idx := tab.Register("arr", Array, 3)
	tab.SetSize(idx, 10)
	tab.SetAddress(idx, 7)

	sym := tab.Symbol(idx)
	if sym.Size != 10 || sym.Address != 7 {
		t.Fatalf("symbol = %+v, want Size=10 Address=7", sym)
	}
	if tab.History()[idx].Size != 10 {
		t.Fatal("expected history entry to stay in sync with live symbol")
	}
}
