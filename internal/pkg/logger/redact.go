package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactNPI masks a 10-digit national provider identifier, keeping the last
// two digits: "1234567890" → "********90".
func RedactNPI(npi string) string {
	if len(npi) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(npi)-2) + npi[len(npi)-2:]
}

// RedactPhone masks all but the last two digits of a phone number.
func RedactPhone(phone string) string {
	digits := 0
	out := []byte(phone)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] >= '0' && out[i] <= '9' {
			digits++
			if digits > 2 {
				out[i] = '*'
			}
		}
	}
	return string(out)
}
