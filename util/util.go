package util

func IsNumber(b byte) bool {
	return b >= '0' && b <= '9'
}

func IsUnderScoreOrDollar(b byte) bool {
	return b == '_' || b == '$'
}

func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// IsIdentifierStart reports whether b may start a source identifier.
func IsIdentifierStart(b byte) bool {
	return IsLetter(b) || IsUnderScoreOrDollar(b)
}

func IsIdentifierPart(b byte) bool {
	return IsIdentifierStart(b) || IsNumber(b)
}

// IsLabelChar reports whether b may appear inside an assembler label.
func IsLabelChar(b byte) bool {
	switch b {
	case '_', '$', '#', '@', '~', '.', '?':
		return true
	}
	return IsLetter(b) || IsNumber(b)
}

// IsValidLabel reports whether s is usable as an assembler label: label characters only, not starting with
// a digit, '$' or '.'.
func IsValidLabel(s string) bool {
	if s == "" || IsNumber(s[0]) || s[0] == '$' || s[0] == '.' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsLabelChar(s[i]) {
			return false
		}
	}
	return true
}
