package encoding

import (
	"encoding/base32"
	"strings"
	"unicode"
)

// crockfordAlphabet leaves out I, L, O and U to avoid transcription mistakes.
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

//nolint:gochecknoglobals
var crockford = base32.NewEncoding(crockfordAlphabet).WithPadding(base32.NoPadding)

// EncodeCrockfordB32LC encodes input with Crockford's Base32 alphabet, without
// padding, in lowercase. Used for content hashes and generated IDs.
func EncodeCrockfordB32LC(input []byte) string {
	return strings.ToLower(crockford.EncodeToString(input))
}

// NormalizeCrockfordB32LC maps a user-supplied ID onto its canonical form:
// whitespace is dropped, letters are lowercased, 'o' becomes '0' and 'i'/'l'
// become '1'. Other characters are kept as they are.
func NormalizeCrockfordB32LC(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		switch r = unicode.ToLower(r); r {
		case 'o':
			return '0'
		case 'i', 'l':
			return '1'
		default:
			return r
		}
	}, input)
}
