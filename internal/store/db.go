package store

// EscapeLike escapes the LIKE wildcards in a key prefix using backslash, so
// "WHERE key LIKE ? ESCAPE '\'" with EscapeLike(prefix)+"%" is a pure prefix match.
func EscapeLike(prefix string) string {
	out := make([]byte, 0, len(prefix))
	for i := 0; i < len(prefix); i++ {
		switch c := prefix[i]; c {
		case '\\', '%', '_':
			out = append(out, '\\', c)
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
