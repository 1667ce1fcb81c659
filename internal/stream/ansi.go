package stream

import "strconv"

// token is one lexical unit from a byte stream that may contain ANSI
// escape sequences.
type token struct {
	kind   tokenKind
	text   []byte // kind == tokText
	params string // kind == tokCSI: everything between ESC[ and the final byte
	final  byte   // kind == tokCSI: the final byte (0x40-0x7E)
	body   []byte // kind == tokOSC: everything between ESC] and the terminator
}

type tokenKind int

const (
	tokText tokenKind = iota
	tokCSI
	tokOSC
	tokEscOther
)

const esc = 0x1b

// tokenize splits data into tokens. The final return value is the
// number of trailing bytes of data that form an incomplete escape
// sequence (0 if data ends cleanly); callers doing streaming input
// should hold those bytes back and prepend them to the next call.
func tokenize(data []byte) ([]token, int) {
	var toks []token
	i := 0
	n := len(data)
	for i < n {
		if data[i] != esc {
			start := i
			for i < n && data[i] != esc {
				i++
			}
			toks = append(toks, token{kind: tokText, text: data[start:i]})
			continue
		}

		// data[i] == ESC
		if i+1 >= n {
			return toks, n - i // lone trailing ESC
		}

		switch data[i+1] {
		case '[':
			start := i + 2
			j := start
			for j < n && !isCSIFinal(data[j]) {
				j++
			}
			if j >= n {
				return toks, n - i // incomplete CSI sequence
			}
			toks = append(toks, token{kind: tokCSI, params: string(data[start:j]), final: data[j]})
			i = j + 1
		case ']':
			start := i + 2
			j := start
			terminated := false
			for j < n {
				if data[j] == 0x07 {
					toks = append(toks, token{kind: tokOSC, body: data[start:j]})
					j++
					terminated = true
					break
				}
				if data[j] == esc && j+1 < n && data[j+1] == '\\' {
					toks = append(toks, token{kind: tokOSC, body: data[start:j]})
					j += 2
					terminated = true
					break
				}
				j++
			}
			if !terminated {
				// ran off the end without a terminator
				return toks, n - i
			}
			i = j
		default:
			toks = append(toks, token{kind: tokEscOther, final: data[i+1]})
			i += 2
		}
	}
	return toks, 0
}

func isCSIFinal(b byte) bool {
	return b >= 0x40 && b <= 0x7e
}

// blacklisted CSI private-mode sequences the output pane must never see:
// bracketed paste, synchronized update, mouse tracking, cursor
// visibility, and alternate screen toggles.
var blacklistedPrivateModes = map[string]bool{
	"?2004": true,
	"?2026": true,
	"?1004": true,
	"?25":   true,
	"?1049": true,
}

func isBlacklisted(params string, final byte) bool {
	if final != 'h' && final != 'l' {
		return false
	}
	return blacklistedPrivateModes[params]
}

// FilterANSI strips the private-mode CSI sequences that must never
// reach an output log (bracketed paste, mouse tracking, cursor
// visibility, alternate screen, synchronized update) while leaving
// every other byte — including SGR and other CSI sequences — intact,
// except that an OSC sequence is always re-emitted with a BEL
// terminator.
// It operates on a complete, self-contained buffer; running it again
// on its own output is a no-op; the blacklisted sequences it removes
// can't reappear from concatenating already-filtered bytes, since
// filtering only deletes complete matched sequences and never
// introduces new escape bytes.
func FilterANSI(data []byte) []byte {
	toks, partial := tokenize(data)
	out := make([]byte, 0, len(data))
	for _, t := range toks {
		switch t.kind {
		case tokText:
			out = append(out, t.text...)
		case tokCSI:
			if isBlacklisted(t.params, t.final) {
				continue
			}
			out = append(out, esc, '[')
			out = append(out, t.params...)
			out = append(out, t.final)
		case tokOSC:
			out = append(out, esc, ']')
			out = append(out, t.body...)
			out = append(out, 0x07)
		case tokEscOther:
			out = append(out, esc, t.final)
		}
	}
	if partial > 0 {
		out = append(out, data[len(data)-partial:]...)
	}
	return out
}

// parseSGRParams splits a CSI "m" sequence's parameter string on ';'
// into integers, treating an empty field as 0 (CSI "m" alone means
// reset).
func parseSGRParams(params string) []int {
	if params == "" {
		return []int{0}
	}
	var out []int
	start := 0
	for i := 0; i <= len(params); i++ {
		if i == len(params) || params[i] == ';' {
			field := params[start:i]
			if field == "" {
				out = append(out, 0)
			} else if v, err := strconv.Atoi(field); err == nil {
				out = append(out, v)
			}
			start = i + 1
		}
	}
	return out
}

// applySGR updates style in place from a parsed SGR parameter list.
func applySGR(style *Style, codes []int) {
	for i := 0; i < len(codes); i++ {
		c := codes[i]
		switch {
		case c == 0:
			*style = Style{}
		case c == 1:
			style.Bold = true
		case c == 2:
			style.Dim = true
		case c == 3:
			style.Italic = true
		case c == 4:
			style.Underline = true
		case c == 22:
			style.Bold = false
			style.Dim = false
		case c == 23:
			style.Italic = false
		case c == 24:
			style.Underline = false
		case c >= 30 && c <= 37:
			style.Foreground = Color{Kind: ColorNamed, Named: ansiNames[c-30]}
		case c == 38:
			i = consumeExtendedColor(codes, i, &style.Foreground)
		case c == 39:
			style.Foreground = Color{}
		case c >= 40 && c <= 47:
			style.Background = Color{Kind: ColorNamed, Named: ansiNames[c-40]}
		case c == 48:
			i = consumeExtendedColor(codes, i, &style.Background)
		case c == 49:
			style.Background = Color{}
		case c >= 90 && c <= 97:
			style.Foreground = Color{Kind: ColorNamed, Named: "bright-" + ansiNames[c-90]}
		case c >= 100 && c <= 107:
			style.Background = Color{Kind: ColorNamed, Named: "bright-" + ansiNames[c-100]}
		}
	}
}

var ansiNames = [8]string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

// consumeExtendedColor handles "38;5;N" (indexed) and "38;2;R;G;B"
// (rgb) forms starting at codes[i] == 38 or 48. Returns the index of
// the last code consumed.
func consumeExtendedColor(codes []int, i int, into *Color) int {
	if i+1 >= len(codes) {
		return i
	}
	switch codes[i+1] {
	case 5:
		if i+2 < len(codes) {
			*into = Color{Kind: ColorIndexed, Index: uint8(codes[i+2])}
			return i + 2
		}
	case 2:
		if i+4 < len(codes) {
			*into = Color{Kind: ColorRGB, R: uint8(codes[i+2]), G: uint8(codes[i+3]), B: uint8(codes[i+4])}
			return i + 4
		}
	}
	return i + 1
}
