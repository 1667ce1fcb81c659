package stream

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorKind distinguishes the three ANSI color encodings spec §4.C.2
// requires a style run to be able to carry.
type ColorKind int

const (
	ColorNone ColorKind = iota
	ColorNamed
	ColorIndexed
	ColorRGB
)

// Color is a single foreground or background color in one of the three
// encodings SGR sequences can specify.
type Color struct {
	Kind  ColorKind
	Named string // "red", "green", ... for the 30-37/90-97 range
	Index uint8  // 256-color palette index (SGR 38;5;N / 48;5;N)
	R, G, B uint8 // 24-bit color (SGR 38;2;R;G;B / 48;2;R;G;B)
}

// currentProfile is the detected terminal color capability. Assistant
// CLIs routinely emit 24-bit SGR sequences regardless of what the
// outer terminal actually supports; colors are degraded to this
// profile before being handed to lipgloss so a 256-color or
// ANSI-only terminal gets a reasonable substitute instead of raw
// escape garbage or a silently ignored style.
var currentProfile = termenv.ColorProfile()

// SetProfile overrides the detected color profile.
func SetProfile(p termenv.Profile) { currentProfile = p }

// degrade downsamples an RGB color to the current profile's
// capability, leaving named and indexed colors untouched (a terminal
// that supports SGR at all supports the 16/256 palettes).
func (c Color) degrade() Color {
	if c.Kind != ColorRGB || currentProfile == termenv.TrueColor {
		return c
	}
	converted := currentProfile.Convert(termenv.RGBColor(rgbHex(c.R, c.G, c.B)))
	switch v := converted.(type) {
	case termenv.ANSI256Color:
		return Color{Kind: ColorIndexed, Index: uint8(v)}
	case termenv.ANSIColor:
		return Color{Kind: ColorIndexed, Index: uint8(v)}
	default:
		return c
	}
}

// Lipgloss returns the lipgloss.TerminalColor this Color represents, or
// nil for ColorNone (meaning "use the terminal default").
func (c Color) Lipgloss() lipgloss.TerminalColor {
	d := c.degrade()
	switch d.Kind {
	case ColorNamed:
		return lipgloss.Color(namedToANSI[d.Named])
	case ColorIndexed:
		return lipgloss.Color(itoa(int(d.Index)))
	case ColorRGB:
		return lipgloss.Color(rgbHex(d.R, d.G, d.B))
	default:
		return nil
	}
}

// Style is the set of SGR attributes a run of text carries. It persists
// across chunks the way real terminal SGR state does — a Style value is
// always "the state so far", never "the delta this chunk introduced".
type Style struct {
	Foreground Color
	Background Color
	Bold       bool
	Dim        bool
	Italic     bool
	Underline  bool
}

// Lipgloss renders Style as a lipgloss.Style for the TUI to use directly.
func (s Style) Lipgloss() lipgloss.Style {
	st := lipgloss.NewStyle()
	if fg := s.Foreground.Lipgloss(); fg != nil {
		st = st.Foreground(fg)
	}
	if bg := s.Background.Lipgloss(); bg != nil {
		st = st.Background(bg)
	}
	return st.Bold(s.Bold).Faint(s.Dim).Italic(s.Italic).Underline(s.Underline)
}

// Run is one (text, style) pair, the unit the styled-text converter emits.
type Run struct {
	Text  string
	Style Style
}

var namedToANSI = map[string]string{
	"black": "0", "red": "1", "green": "2", "yellow": "3",
	"blue": "4", "magenta": "5", "cyan": "6", "white": "7",
	"bright-black": "8", "bright-red": "9", "bright-green": "10", "bright-yellow": "11",
	"bright-blue": "12", "bright-magenta": "13", "bright-cyan": "14", "bright-white": "15",
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func rgbHex(r, g, b uint8) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 7)
	out[0] = '#'
	out[1] = hexDigits[r>>4]
	out[2] = hexDigits[r&0xf]
	out[3] = hexDigits[g>>4]
	out[4] = hexDigits[g&0xf]
	out[5] = hexDigits[b>>4]
	out[6] = hexDigits[b&0xf]
	return string(out)
}
