// Package winenc decodes and encodes the Windows-1252 text used by plugin
// and load-order list files across every supported game.
package winenc

import (
	"golang.org/x/text/encoding/charmap"
)

// Decode converts Windows-1252 encoded bytes to a UTF-8 string.
func Decode(b []byte) (string, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Encode converts a UTF-8 string to Windows-1252 bytes. A character with no
// Windows-1252 representation makes it return an error.
func Encode(s string) ([]byte, error) {
	return charmap.Windows1252.NewEncoder().Bytes([]byte(s))
}
