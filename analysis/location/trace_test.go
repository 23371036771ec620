package location

import (
	"errors"
	"testing"
)

func TestStackCFARejectsHeapAboveK(t *testing.T) {
	_, err := NewStackCFA(1, 2, 0)
	var cerr *ContextError
	if !errors.As(err, &cerr) || cerr.K != 1 || cerr.H != 2 {
		t.Fatalf("expected a ContextError, got %v", err)
	}
	if !errors.Is(err, ErrInvalidContext) {
		t.Error("ContextError should wrap ErrInvalidContext")
	}

	if _, err := (Strategy{Name: StrategyStackCFA, K: 0, H: 1}).New(0); err == nil {
		t.Error("strategy accepted h > k")
	}
	if _, err := NewStackCFA(2, 2, 0); err != nil {
		t.Errorf("h == k should be accepted: %v", err)
	}
}

func TestAddressDeterminism(t *testing.T) {
	for _, s := range []Strategy{{Name: StrategyFSCI}, {Name: StrategyStackCFA, K: 2, H: 1}} {
		t1, _ := s.New(1)
		t2, _ := s.New(1)
		t1 = t1.Call(CallSite{ID: 7}).Update(9)
		t2 = t2.Call(CallSite{ID: 7}).Update(9)

		if t1.MakeAddress(3, "x") != t2.MakeAddress(3, "x") {
			t.Errorf("%s: MakeAddress is not deterministic", s.Name)
		}
		if t1.ToAddress("p") != t2.ToAddress("p") {
			t.Errorf("%s: ToAddress is not deterministic", s.Name)
		}
		if t1.MakeAddress(3, "x") == t1.MakeAddress(3, "y") {
			t.Errorf("%s: properties must be distinguished", s.Name)
		}
	}
}

func TestFSCICollapsesCalls(t *testing.T) {
	tr := Trace(NewFSCI(0))
	a := tr.Call(CallSite{ID: 5}).MakeAddress(3, "")
	b := tr.Call(CallSite{ID: 6}).Call(CallSite{ID: 5}).MakeAddress(3, "")
	if a != b {
		t.Error("FSCI addresses should not depend on the call string")
	}
	if got := tr.Call(CallSite{ID: 5}).ToAddress(""); got.Site != 5 {
		t.Errorf("call step should move to the call site, got %v", got)
	}
}

func TestStackCFAHeapSensitivity(t *testing.T) {
	tr, _ := NewStackCFA(2, 1, 0)
	viaA := tr.Call(CallSite{ID: 10}).Call(CallSite{ID: 20})
	viaB := tr.Call(CallSite{ID: 11}).Call(CallSite{ID: 20})

	if viaA.MakeAddress(3, "") != viaB.MakeAddress(3, "") {
		t.Error("with h = 1 only the last frame may matter for addresses")
	}
	if viaA.Context() == viaB.Context() {
		t.Error("with k = 2 the calling contexts should differ")
	}
	if viaA.MakeAddress(3, "") == tr.Call(CallSite{ID: 21}).MakeAddress(3, "") {
		t.Error("different last frames should yield different addresses")
	}
}

func TestStackCFAFiniteAddresses(t *testing.T) {
	tr, _ := NewStackCFA(2, 2, 0)
	sites := []int{1, 2, 3}

	// Explore all call strings up to length 6 over three call sites; the
	// addresses of one variable can only take 1 + 3 + 9 values.
	seen := map[Address]bool{}
	var explore func(Trace, int)
	explore = func(cur Trace, depth int) {
		seen[cur.MakeAddress(42, "")] = true
		if depth == 6 {
			return
		}
		for _, s := range sites {
			explore(cur.Call(CallSite{ID: s}), depth+1)
		}
	}
	explore(tr, 0)

	if len(seen) > 1+3+9 {
		t.Errorf("generated %d distinct addresses", len(seen))
	}
}

func TestFoldCallString(t *testing.T) {
	if FoldCallString(nil) != 0 {
		t.Error("empty call string must fold to 0")
	}
	if FoldCallString([]int{1, 2}) == FoldCallString([]int{2, 1}) {
		t.Error("folding must be order sensitive")
	}
	if FoldCallString([]int{0}) == FoldCallString(nil) {
		t.Error("a frame must contribute even when its site is 0")
	}
	if FoldCallString([]int{1, 2}) != 2*16777619+3 {
		t.Errorf("unexpected fold %d", FoldCallString([]int{1, 2}))
	}
}

func TestBuiltinAddresses(t *testing.T) {
	if !Global.IsBuiltin() || Global == Object {
		t.Error("builtins must be distinct negative addresses")
	}
	if name, ok := BuiltinName(FunctionCall); !ok || name != "Function.prototype.call" {
		t.Errorf("BuiltinName = %q", name)
	}
	if (Address{Site: 3}).IsBuiltin() {
		t.Error("program addresses are not builtins")
	}
}
