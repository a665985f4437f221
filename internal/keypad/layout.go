package keypad

import "unicode"

// Layout maps the left-hand block of a QWERTY keyboard onto the hex keypad:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
var Layout = [4][4]rune{
	{'1', '2', '3', '4'},
	{'q', 'w', 'e', 'r'},
	{'a', 's', 'd', 'f'},
	{'z', 'x', 'c', 'v'},
}

// Keys in the same arrangement as Layout.
var Keys = [4][4]byte{
	{0x1, 0x2, 0x3, 0xC},
	{0x4, 0x5, 0x6, 0xD},
	{0x7, 0x8, 0x9, 0xE},
	{0xA, 0x0, 0xB, 0xF},
}

// KeyForChar returns the keypad key for a host character, case-insensitive.
func KeyForChar(r rune) (byte, bool) {
	r = unicode.ToLower(r)
	for row := range Layout {
		for col, c := range Layout[row] {
			if c == r {
				return Keys[row][col], true
			}
		}
	}
	return 0, false
}

// CharForKey is the inverse of KeyForChar, for help screens.
func CharForKey(key byte) rune {
	for row := range Keys {
		for col, k := range Keys[row] {
			if k == key&0xF {
				return Layout[row][col]
			}
		}
	}
	return 0
}
