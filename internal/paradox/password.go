package paradox

import "fmt"

// EncodePassword converts the PC password into its two byte wire form.
//
// A four digit numeric password is packed one digit per nibble, with the
// digit 0 sent as 0xA. A two byte non-numeric secret is sent verbatim and an
// empty secret encodes as zero.
func EncodePassword(secret string) ([2]byte, error) {
	var out [2]byte
	if secret == "" {
		return out, nil
	}
	if !isDigits(secret) {
		if len(secret) != 2 {
			return out, fmt.Errorf("%w: raw password must be 2 bytes, got %d", ErrFieldRange, len(secret))
		}
		copy(out[:], secret)
		return out, nil
	}
	if len(secret) != 4 {
		return out, fmt.Errorf("%w: numeric password must be 4 digits, got %d", ErrFieldRange, len(secret))
	}
	for i := 0; i < 4; i++ {
		d := secret[i] - '0'
		if d == 0 {
			d = 0x0a
		}
		if i%2 == 0 {
			out[i/2] = d << 4
		} else {
			out[i/2] |= d
		}
	}
	return out, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
