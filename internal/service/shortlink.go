package service

import (
	"fmt"
	"strconv"
)

// Short links encode the recipe id in hexadecimal. The code carries no
// secret, it only has to round-trip back to the canonical recipe URL.

// EncodeShortLink returns the short-link code for a recipe id.
func EncodeShortLink(recipeID uint) string {
	return strconv.FormatUint(uint64(recipeID), 16)
}

// DecodeShortLink parses a short-link code back into a recipe id.
func DecodeShortLink(code string) (uint, error) {
	id, err := strconv.ParseUint(code, 16, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid short link code %q", code)
	}
	return uint(id), nil
}
