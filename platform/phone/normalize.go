// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when the caller does not configure one.
const DefaultRegion = "US"

// NormalizeE164 formats a phone number to E.164 using region for numbers
// without a country code. ok is false when the input is not a valid number;
// the trimmed input is returned in that case.
func NormalizeE164(input, region string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed, false
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed, false
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed, false
	}

	return phonenumbers.Format(number, phonenumbers.E164), true
}
