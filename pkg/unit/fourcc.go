package unit

import "fmt"

// FourCC is a four character code packed big-endian into a uint32.
type FourCC uint32

// ParseFourCC converts a 4-character string to a FourCC.
func ParseFourCC(s string) (FourCC, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("unit: four character code %q must be 4 bytes", s)
	}
	return FourCC(uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3])), nil
}

// MustFourCC is like ParseFourCC but panics on error.
func MustFourCC(s string) FourCC {
	c, err := ParseFourCC(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the code as text; unprintable codes are shown in hex.
func (c FourCC) String() string {
	b := c.bytes()
	for _, ch := range b {
		if ch < 0x20 || ch > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(c))
		}
	}
	return string(b[:])
}

func (c FourCC) bytes() [4]byte {
	return [4]byte{byte(c >> 24), byte(c >> 16), byte(c >> 8), byte(c)}
}
