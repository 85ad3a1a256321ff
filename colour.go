package hnpixels

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Colour is a 3-byte RGB colour. It is a plain value: compare with ==,
// pass by value.
type Colour struct {
	R, G, B uint8
}

// ColourFromHex parses a 6-hex-digit colour code such as "FF00AA".
// Input case is ignored.
func ColourFromHex(hexrep string) (Colour, error) {
	if len(hexrep) != 6 {
		return Colour{}, fmt.Errorf("hnpixels: colour code %q must be six hex digits", hexrep)
	}
	triple, err := hex.DecodeString(hexrep)
	if err != nil {
		return Colour{}, fmt.Errorf("hnpixels: invalid colour code %q: %w", hexrep, err)
	}
	return ColourFromTriple(triple)
}

// ColourFromTriple builds a Colour from a 3-byte r,g,b sequence.
func ColourFromTriple(triple []byte) (Colour, error) {
	if len(triple) != 3 {
		return Colour{}, fmt.Errorf("hnpixels: colour triple must be three bytes, got %d", len(triple))
	}
	return Colour{R: triple[0], G: triple[1], B: triple[2]}, nil
}

// Hex returns the canonical 6-digit uppercase hex code of the colour.
func (c Colour) Hex() string {
	return strings.ToUpper(hex.EncodeToString([]byte{c.R, c.G, c.B}))
}

// Triple returns the r,g,b bytes of the colour.
func (c Colour) Triple() [3]byte {
	return [3]byte{c.R, c.G, c.B}
}
