package reader

import (
	"strings"
	"unicode"
)

// maskedPhoneMinLen is the shortest number that still leaves digits hidden.
const maskedPhoneMinLen = 7

// sanitizePhone keeps digits and one leading plus sign.
func sanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	plus := strings.HasPrefix(phone, "+")

	digits := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return -1
		}

		return r
	}, phone)

	if plus {
		return "+" + digits
	}

	return digits
}

func maskPhone(phone string) string {
	if len(phone) < maskedPhoneMinLen {
		return "****"
	}

	return phone[:3] + "****" + phone[len(phone)-2:]
}
