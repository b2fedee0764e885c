package utils

import "testing"

func TestMaskEmail_ShortLocalPart(t *testing.T) {
	cases := map[string]string{
		"a@example.com":  "a***@example.com",
		"ab@example.com": "a***@example.com",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskEmail_LongLocalPart(t *testing.T) {
	cases := map[string]string{
		"abc@example.com":      "ab***@example.com",
		"abcd@example.com":     "ab***@example.com",
		"abcde@example.com":    "ab***e@example.com",
		"ab.cdefg@example.com": "ab***g@example.com",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskEmail_PassesThroughMalformedInput(t *testing.T) {
	for _, in := range []string{"", "no-at-sign", "@example.com", "trailing@"} {
		want := in
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeEmail_TrimsAndLowercases(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("unexpected normalized email: %q", got)
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatalf("expected password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
}
