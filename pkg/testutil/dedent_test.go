package testutil

import "testing"

var dedentTests = []struct {
	name string
	in   string
	out  string
}{
	{
		name: "no leading newline",
		in:   " \n  foo\n bar",
		out:  "\n foo\nbar",
	},
	{
		name: "leading newline and trailing newline",
		in: `
			a
			 b
			c
			`,
		out: "a\n b\nc\n",
	},
	{
		name: "inconsistent indentation keeps the common part",
		in: `
				a
			b`,
		out: "\ta\nb",
	},
	{
		name: "blank lines do not affect the margin",
		in: `
			a

			b`,
		out: "a\n\nb",
	},
}

func TestDedent(t *testing.T) {
	for _, tc := range dedentTests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Dedent(tc.in); got != tc.out {
				t.Errorf("Dedent(%q) -> %q, want %q", tc.in, got, tc.out)
			}
		})
	}
}

func TestSet(t *testing.T) {
	x := 1
	t.Run("inner", func(t *testing.T) {
		Set(t, &x, 2)
		if x != 2 {
			t.Errorf("x = %d, want 2", x)
		}
	})
	if x != 1 {
		t.Errorf("x = %d after cleanup, want 1", x)
	}
}
