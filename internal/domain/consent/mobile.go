package consent

import "strings"

// AAHandle is the account aggregator handle appended to virtual addresses.
const AAHandle = "onemoney"

const mobileDigits = 10

// NormalizeMobile strips every non-digit and requires exactly ten digits.
func NormalizeMobile(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", invalidInput("mobileNumber is required")
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	if len(digits) != mobileDigits {
		return "", invalidInput("invalid mobile number format, must be %d digits", mobileDigits)
	}
	return digits, nil
}

// VirtualAddress builds the VUA for a normalized mobile number.
func VirtualAddress(digits string) string {
	return digits + "@" + AAHandle
}

// MaskMobile keeps the first four digits for logging.
func MaskMobile(digits string) string {
	if len(digits) <= 4 {
		return digits
	}
	return digits[:4] + strings.Repeat("*", len(digits)-4)
}
