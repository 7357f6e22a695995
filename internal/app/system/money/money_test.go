package money

import "testing"

func TestSum(t *testing.T) {
	if got := Sum([]Cents{100, 250, 50}); got != 400 {
		t.Errorf("Sum: got %d, want 400", got)
	}
	if got := Sum(nil); got != 0 {
		t.Errorf("Sum(nil): got %d, want 0", got)
	}
}

func TestSplitPercent_SharesSumToTotal(t *testing.T) {
	totals := []Cents{0, 1, 99, 100, 101, 12345, 9999999, -101, -12345}
	pcts := []int{0, 1, 33, 50, 60, 99, 100}
	for _, total := range totals {
		for _, pct := range pcts {
			first, second, err := SplitPercent(total, pct)
			if err != nil {
				t.Fatalf("SplitPercent(%d, %d): %v", total, pct, err)
			}
			if first+second != total {
				t.Errorf("SplitPercent(%d, %d): %d + %d != %d", total, pct, first, second, total)
			}
		}
	}
}

func TestSplitPercent_RoundHalfUp(t *testing.T) {
	// 101 * 50% = 50.5, rounds up to 51
	first, second, err := SplitPercent(101, 50)
	if err != nil {
		t.Fatal(err)
	}
	if first != 51 || second != 50 {
		t.Errorf("got (%d, %d), want (51, 50)", first, second)
	}

	// 33% of 100 = 33 exactly
	first, second, err = SplitPercent(100, 33)
	if err != nil {
		t.Fatal(err)
	}
	if first != 33 || second != 67 {
		t.Errorf("got (%d, %d), want (33, 67)", first, second)
	}
}

func TestSplitPercent_Bounds(t *testing.T) {
	if _, _, err := SplitPercent(100, -1); err != ErrBadSplit {
		t.Errorf("pct -1: expected ErrBadSplit, got %v", err)
	}
	if _, _, err := SplitPercent(100, 101); err != ErrBadSplit {
		t.Errorf("pct 101: expected ErrBadSplit, got %v", err)
	}

	first, second, err := SplitPercent(500, 100)
	if err != nil || first != 500 || second != 0 {
		t.Errorf("pct 100: got (%d, %d, %v)", first, second, err)
	}
	first, second, err = SplitPercent(500, 0)
	if err != nil || first != 0 || second != 500 {
		t.Errorf("pct 0: got (%d, %d, %v)", first, second, err)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   Cents
		want string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{123456, "1234.56"},
		{-101, "-1.01"},
	}
	for _, c := range cases {
		if got := Format(c.in); got != c.want {
			t.Errorf("Format(%d): got %q, want %q", c.in, got, c.want)
		}
	}
}
