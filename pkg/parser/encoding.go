package parser

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// BOM constants
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectAndDecode detects the encoding of the input data, strips any BOM,
// and returns the decoded UTF-8 bytes along with the detected encoding name.
// Directory exports from Windows tooling are commonly UTF-16 or Windows-1252.
func DetectAndDecode(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return data, "utf-8", nil
	}

	if bytes.HasPrefix(data, bomUTF8) {
		return data[3:], "utf-8-bom", nil
	}

	if bytes.HasPrefix(data, bomUTF16LE) {
		decoded, err := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), evenLength(data[2:]))
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 LE decode failed: %w", err)
		}
		return decoded, "utf-16le", nil
	}

	if bytes.HasPrefix(data, bomUTF16BE) {
		decoded, err := decodeWith(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), evenLength(data[2:]))
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 BE decode failed: %w", err)
		}
		return decoded, "utf-16be", nil
	}

	if utf8.Valid(data) {
		return data, "utf-8", nil
	}

	// Not UTF-8 and no BOM: Windows-1252 is a superset of Latin-1 for the
	// printable range and is what Excel "CSV" exports use on Spanish locales.
	decoded, err := decodeWith(charmap.Windows1252, data)
	if err != nil {
		return nil, "", fmt.Errorf("windows-1252 decode failed: %w", err)
	}
	return decoded, "windows-1252", nil
}

func decodeWith(enc encoding.Encoding, data []byte) ([]byte, error) {
	return enc.NewDecoder().Bytes(data)
}

// evenLength drops a dangling trailing byte from UTF-16 input.
func evenLength(data []byte) []byte {
	if len(data)%2 != 0 {
		return data[:len(data)-1]
	}
	return data
}
