package typesys

import "testing"

func TestTriJoin(t *testing.T) {
	cases := []struct {
		name string
		a, b Tri
		want Tri
	}{
		{"yes-yes", Yes, Yes, Yes},
		{"no-no", No, No, No},
		{"unknown-unknown", Unknown, Unknown, Unknown},
		{"yes-no", Yes, No, Unknown},
		{"no-yes", No, Yes, Unknown},
		{"yes-unknown", Yes, Unknown, Unknown},
		{"unknown-no", Unknown, No, Unknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Join(c.b); got != c.want {
				t.Errorf("%s.Join(%s) = %s, want %s", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestTriString(t *testing.T) {
	if Yes.String() != "Yes" {
		t.Errorf("Yes.String() = %q, want Yes", Yes.String())
	}
	if No.String() != "No" {
		t.Errorf("No.String() = %q, want No", No.String())
	}
	if Unknown.String() != "Unknown" {
		t.Errorf("Unknown.String() = %q, want Unknown", Unknown.String())
	}
}
