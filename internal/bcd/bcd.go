// Package bcd implements the packed binary-coded-decimal wire encoding
// used for IMSI payloads: two decimal digits per octet, low nibble
// first, with 0xF as the odd-length pad sentinel.
package bcd

// pad is the nibble value used to fill an odd-length digit string and
// the sentinel the decoder drops wherever it appears.
const pad = 0x0F

// Encode packs an ASCII digit string into BCD octets. Digits pair up
// left to right; the low nibble of each octet holds the first digit of
// the pair, the high nibble the second. An odd-length input gets a
// trailing pad nibble. Bytes outside '0'-'9' are treated as the zero
// nibble (permissive, never an error).
func Encode(imsi string) []byte {
	n := len(imsi)
	if n == 0 {
		return nil
	}

	out := make([]byte, (n+1)/2)
	for i := 0; i < n; i += 2 {
		lo := nibble(imsi[i])
		hi := byte(pad)
		if i+1 < n {
			hi = nibble(imsi[i+1])
		}
		out[i/2] = lo | (hi << 4)
	}
	return out
}

func nibble(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0'
	}
	return 0
}

// Decode unpacks BCD octets back into an ASCII digit string. Each octet
// yields its low nibble then its high nibble as decimal digits; a 0xF
// nibble is dropped wherever it occurs rather than terminating decode,
// so a pad byte mid-stream still lets later nibbles through.
func Decode(octets []byte) string {
	if len(octets) == 0 {
		return ""
	}

	digits := make([]byte, 0, len(octets)*2)
	for _, b := range octets {
		lo := b & 0x0F
		hi := (b >> 4) & 0x0F
		if lo != pad {
			digits = append(digits, '0'+lo)
		}
		if hi != pad {
			digits = append(digits, '0'+hi)
		}
	}
	return string(digits)
}
