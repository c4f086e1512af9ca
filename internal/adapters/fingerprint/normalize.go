package fingerprint

// Normalize returns the canonical form of kernel source text.
//
// Line endings are unified, comments are dropped and whitespace is removed except
// for a single space between two word characters or a word character and a dot.
// String literals and the <path> of include and use statements are copied
// verbatim, escapes included.
func Normalize(src string) []byte {
	out := make([]byte, 0, len(src))
	pendingSpace := false

	emit := func(c byte) {
		if pendingSpace && len(out) > 0 && separated(out[len(out)-1], c) {
			out = append(out, ' ')
		}
		pendingSpace = false
		out = append(out, c)
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '"':
			emit(c)
			i++
			for ; i < len(src); i++ {
				c = src[i]
				if c == '\r' && i+1 < len(src) && src[i+1] == '\n' {
					continue
				}
				out = append(out, c)
				if c == '\\' && i+1 < len(src) {
					i++
					out = append(out, src[i])
					continue
				}
				if c == '"' {
					break
				}
			}
		case c == '<' && endsWithKeyword(out, "include", "use"):
			emit(c)
			for i++; i < len(src) && src[i] != '\n'; i++ {
				if src[i] == '\r' {
					continue
				}
				out = append(out, src[i])
				if src[i] == '>' {
					break
				}
			}
			if i < len(src) && src[i] == '\n' {
				i--
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			pendingSpace = true
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && (src[i] != '*' || src[i+1] != '/') {
				i++
			}
			i++
			pendingSpace = true
		case isSpace(c):
			pendingSpace = true
		default:
			emit(c)
		}
	}
	return out
}

// separated reports whether whitespace between a and b changes the tokens.
func separated(a, b byte) bool {
	return (isWord(a) || a == '.') && (isWord(b) || b == '.')
}

// endsWithKeyword reports whether out ends with one of the keywords as a whole word.
func endsWithKeyword(out []byte, keywords ...string) bool {
	for _, kw := range keywords {
		n := len(out) - len(kw)
		if n < 0 || string(out[n:]) != kw {
			continue
		}
		if n == 0 || !isWord(out[n-1]) {
			return true
		}
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWord(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		c >= 0x80
}
