package worklist

import "testing"

func TestStartOrder(t *testing.T) {
	var got []int
	Start(1, func(n int, add func(int)) {
		got = append(got, n)
		if n < 4 {
			add(2 * n)
			add(2*n + 1)
		}
	})

	want := []int{1, 2, 3, 4, 5, 6, 7}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestStartVDoesNotAliasInput(t *testing.T) {
	start := []int{1, 2}
	StartV(start[:1], func(n int, add func(int)) {
		if n == 1 {
			add(3)
		}
	})
	if start[1] != 2 {
		t.Errorf("input slice was overwritten: %v", start)
	}
}

func TestGetNextOnEmpty(t *testing.T) {
	var w Worklist[string]
	if got := w.GetNext(); got != "" || !w.IsEmpty() {
		t.Errorf("expected the zero value from an empty worklist, got %q", got)
	}
}
