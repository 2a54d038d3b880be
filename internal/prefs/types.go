// Package prefs maps the calculator's preferences record to and from a
// hierarchical key/value backend.
//
// The record is plain data owned by the caller. A Store loads it at startup
// and flushes it at shutdown:
//
//	store := prefs.NewStore(b)
//	p, report := store.Load()
//	...
//	err := store.Save(p)
//
// Load never fails: absent or malformed keys fall back to the defaults in
// Defaults and are listed in the returned Report.
package prefs

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// DefaultNamespace is the root segment of every key path.
	DefaultNamespace = "SpeedCrunch"

	// MaxDecimalDigits caps View/DecimalDigits on load.
	MaxDecimalDigits = 70

	// AutoDecimalDigits lets the display pick the number of digits.
	AutoDecimalDigits = -1

	// MaxHistory is the number of most recent history entries persisted.
	MaxHistory = 100

	// DefaultFont is the serialized descriptor of the platform default font.
	DefaultFont = "Sans Serif,9,-1,5,50,0,0,0,0,0"
)

// Angle units for General.AngleMode.
const (
	AngleDegree = "degree"
	AngleRadian = "radian"
)

// Preferences holds every user-configurable setting of a session.
type Preferences struct {
	General         General         `toml:"general" json:"general"`
	View            View            `toml:"view" json:"view"`
	Appearance      Appearance      `toml:"appearance" json:"appearance"`
	SyntaxHighlight SyntaxHighlight `toml:"syntax_highlight" json:"syntax_highlight"`

	// History is ordered oldest first. Only the last MaxHistory entries are
	// persisted.
	History []string `toml:"history" json:"history"`

	// Variables holds "name=value" bindings.
	Variables []string `toml:"variables" json:"variables"`
}

type General struct {
	AngleMode     string `toml:"angle_mode" json:"angle_mode"`
	SaveHistory   bool   `toml:"save_history" json:"save_history"`
	SaveVariables bool   `toml:"save_variables" json:"save_variables"`
	AutoComplete  bool   `toml:"auto_complete" json:"auto_complete"`
	AutoCalc      bool   `toml:"auto_calc" json:"auto_calc"`
}

type View struct {
	Format        Format `toml:"format" json:"format"`
	DecimalDigits int    `toml:"decimal_digits" json:"decimal_digits"`
}

type Appearance struct {
	ShowClearInputButton   bool   `toml:"show_clear_input_button" json:"show_clear_input_button"`
	ShowEvaluateButton     bool   `toml:"show_evaluate_button" json:"show_evaluate_button"`
	ShowKeyPad             bool   `toml:"show_keypad" json:"show_keypad"`
	CustomAppearance       bool   `toml:"custom_appearance" json:"custom_appearance"`
	CustomFont             string `toml:"custom_font" json:"custom_font"`
	CustomTextColor        Color  `toml:"custom_text_color" json:"custom_text_color"`
	CustomBackgroundColor1 Color  `toml:"custom_background_color1" json:"custom_background_color1"`
	CustomBackgroundColor2 Color  `toml:"custom_background_color2" json:"custom_background_color2"`
	WindowSize             Size   `toml:"window_size" json:"window_size"`
}

type SyntaxHighlight struct {
	Enabled                 bool  `toml:"enabled" json:"enabled"`
	NumberColor             Color `toml:"number_color" json:"number_color"`
	FunctionColor           Color `toml:"function_color" json:"function_color"`
	VariableColor           Color `toml:"variable_color" json:"variable_color"`
	MatchedParenthesisColor Color `toml:"matched_parenthesis_color" json:"matched_parenthesis_color"`
}

// Defaults returns the built-in preferences used on first run.
func Defaults() Preferences {
	return Preferences{
		General: General{
			AngleMode:     AngleDegree,
			SaveHistory:   true,
			SaveVariables: true,
			AutoComplete:  true,
			AutoCalc:      true,
		},
		View: View{
			Format:        FormatGeneral,
			DecimalDigits: AutoDecimalDigits,
		},
		Appearance: Appearance{
			ShowClearInputButton:   true,
			ShowEvaluateButton:     true,
			ShowKeyPad:             true,
			CustomAppearance:       false,
			CustomFont:             DefaultFont,
			CustomTextColor:        Color{0x00, 0x00, 0x00},
			CustomBackgroundColor1: Color{0xff, 0xff, 0xff},
			CustomBackgroundColor2: Color{0xee, 0xee, 0xee},
		},
		SyntaxHighlight: SyntaxHighlight{
			Enabled:                 true,
			NumberColor:             Color{0x00, 0x00, 0x7f},
			FunctionColor:           Color{0x55, 0x00, 0x00},
			VariableColor:           Color{0x00, 0x55, 0x00},
			MatchedParenthesisColor: Color{0xff, 0xff, 0xb7},
		},
	}
}

// Format selects how numbers are displayed.
type Format int

const (
	FormatGeneral Format = iota
	FormatFixed
	FormatExponential
)

var formatNames = map[Format]string{
	FormatGeneral:     "General",
	FormatFixed:       "Fixed",
	FormatExponential: "Exp",
}

// String returns the stored spelling: "General", "Fixed" or "Exp".
func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat maps a stored spelling back to a Format. Matching is exact.
func ParseFormat(s string) (Format, bool) {
	for f, name := range formatNames {
		if s == name {
			return f, true
		}
	}
	return FormatGeneral, false
}

func (f Format) MarshalText() ([]byte, error) {
	if _, ok := formatNames[f]; !ok {
		return nil, fmt.Errorf("invalid format %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(text []byte) error {
	v, ok := ParseFormat(string(text))
	if !ok {
		return fmt.Errorf("invalid format %q: want General, Fixed or Exp", text)
	}
	*f = v
	return nil
}

// Color is an opaque RGB color encoded as "#rrggbb".
type Color struct {
	R, G, B uint8
}

// ParseColor accepts "#rrggbb" and the short "#rgb" form.
func ParseColor(s string) (Color, error) {
	c, err := colorful.Hex(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// Hex returns the "#rrggbb" form.
func (c Color) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
}

func (c Color) String() string { return c.Hex() }

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Size is the main window size. The zero value means unset.
type Size struct {
	Width  int `toml:"width" json:"width"`
	Height int `toml:"height" json:"height"`
}

// IsSet reports whether a size was recorded.
func (s Size) IsSet() bool {
	return s.Width > 0 && s.Height > 0
}
