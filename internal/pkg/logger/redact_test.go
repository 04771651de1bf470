package logger

import "testing"

func TestRedactEmail(t *testing.T) {
	cases := map[string]string{
		"john.doe@example.com": "jo***@example.com",
		"ab@example.com":       "***@example.com",
		"not-an-email":         "***@***",
	}
	for in, want := range cases {
		if got := RedactEmail(in); got != want {
			t.Errorf("RedactEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRedactNPI(t *testing.T) {
	if got := RedactNPI("1234567890"); got != "********90" {
		t.Errorf("RedactNPI = %q", got)
	}
	if got := RedactNPI("12"); got != "****" {
		t.Errorf("short NPI = %q", got)
	}
}

func TestRedactPhone(t *testing.T) {
	if got := RedactPhone("+1 (555) 123-4567"); got != "+* (***) ***-**67" {
		t.Errorf("RedactPhone = %q", got)
	}
}
