package money

import "testing"

func TestFormat(t *testing.T) {
	cases := map[int64]string{
		0:       "TZS 0",
		600:     "TZS 600",
		39000:   "TZS 39,000",
		1250000: "TZS 1,250,000",
		-10000:  "TZS -10,000",
	}
	for amount, want := range cases {
		if got := Format(amount); got != want {
			t.Errorf("Format(%d) = %q, want %q", amount, got, want)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits(33840); got != "33,840" {
		t.Fatalf("unexpected digits %q", got)
	}
}
