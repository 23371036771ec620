package indenter

import "testing"

func TestIndenterNesting(t *testing.T) {
	inner := Indenter().Start("[").NestStrings("a", "b").End("]")
	outer := Indenter().Start("{").NestStrings("x", inner).End("}")

	expected := "{\n  x\n  [\n    a\n    b\n  ]\n}"
	if outer != expected {
		t.Errorf("expected\n%s\ngot\n%s", expected, outer)
	}
}

func TestIndenterSingleton(t *testing.T) {
	if s := Indenter().Start("{").NestStrings("x").End("}"); s != "{x}" {
		t.Errorf("got %q", s)
	}
	if s := Indenter().Start("{").NestStrings().End("}"); s != "{}" {
		t.Errorf("got %q", s)
	}
}
