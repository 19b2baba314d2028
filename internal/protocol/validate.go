package protocol

// IsRecordID reports whether s has the 24-hex-char shape the durable
// player store keys records by. Identifiers that fail this check must
// never reach a persistence call.
func IsRecordID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
