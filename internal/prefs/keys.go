package prefs

import (
	"fmt"
	"strconv"
	"strings"
)

type fieldKind int

const (
	kString fieldKind = iota
	kBool
	kInt
	kColor
	kFormat
)

// field binds one scalar preference to its key path below the namespace.
type field struct {
	key     string
	kind    fieldKind
	apply   func(p *Preferences, v any)
	extract func(p Preferences) any
}

// Groups and entry names of the list-valued preferences.
const (
	historyGroup   = "History"
	historyCount   = "History/Count"
	historyPrefix  = "Expression"
	variablesGroup = "Variables"
)

var fields = []field{
	{
		key: "General/AngleMode", kind: kString,
		apply:   func(p *Preferences, v any) { p.General.AngleMode = v.(string) },
		extract: func(p Preferences) any { return p.General.AngleMode },
	},
	{
		key: "General/SaveHistory", kind: kBool,
		apply:   func(p *Preferences, v any) { p.General.SaveHistory = v.(bool) },
		extract: func(p Preferences) any { return p.General.SaveHistory },
	},
	{
		key: "General/SaveVariables", kind: kBool,
		apply:   func(p *Preferences, v any) { p.General.SaveVariables = v.(bool) },
		extract: func(p Preferences) any { return p.General.SaveVariables },
	},
	{
		key: "General/AutoComplete", kind: kBool,
		apply:   func(p *Preferences, v any) { p.General.AutoComplete = v.(bool) },
		extract: func(p Preferences) any { return p.General.AutoComplete },
	},
	{
		key: "General/AutoCalc", kind: kBool,
		apply:   func(p *Preferences, v any) { p.General.AutoCalc = v.(bool) },
		extract: func(p Preferences) any { return p.General.AutoCalc },
	},
	{
		key: "View/Format", kind: kFormat,
		apply:   func(p *Preferences, v any) { p.View.Format = v.(Format) },
		extract: func(p Preferences) any { return p.View.Format },
	},
	{
		key: "View/DecimalDigits", kind: kInt,
		apply:   func(p *Preferences, v any) { p.View.DecimalDigits = clampDigits(v.(int)) },
		extract: func(p Preferences) any { return p.View.DecimalDigits },
	},
	{
		key: "Appearance/ShowClearInputButton", kind: kBool,
		apply:   func(p *Preferences, v any) { p.Appearance.ShowClearInputButton = v.(bool) },
		extract: func(p Preferences) any { return p.Appearance.ShowClearInputButton },
	},
	{
		key: "Appearance/ShowEvaluateButton", kind: kBool,
		apply:   func(p *Preferences, v any) { p.Appearance.ShowEvaluateButton = v.(bool) },
		extract: func(p Preferences) any { return p.Appearance.ShowEvaluateButton },
	},
	{
		key: "Appearance/ShowKeyPad", kind: kBool,
		apply:   func(p *Preferences, v any) { p.Appearance.ShowKeyPad = v.(bool) },
		extract: func(p Preferences) any { return p.Appearance.ShowKeyPad },
	},
	{
		key: "Appearance/CustomAppearance", kind: kBool,
		apply:   func(p *Preferences, v any) { p.Appearance.CustomAppearance = v.(bool) },
		extract: func(p Preferences) any { return p.Appearance.CustomAppearance },
	},
	{
		key: "Appearance/CustomFont", kind: kString,
		apply:   func(p *Preferences, v any) { p.Appearance.CustomFont = v.(string) },
		extract: func(p Preferences) any { return p.Appearance.CustomFont },
	},
	{
		key: "Appearance/CustomTextColor", kind: kColor,
		apply:   func(p *Preferences, v any) { p.Appearance.CustomTextColor = v.(Color) },
		extract: func(p Preferences) any { return p.Appearance.CustomTextColor },
	},
	{
		key: "Appearance/CustomBackgroundColor1", kind: kColor,
		apply:   func(p *Preferences, v any) { p.Appearance.CustomBackgroundColor1 = v.(Color) },
		extract: func(p Preferences) any { return p.Appearance.CustomBackgroundColor1 },
	},
	{
		key: "Appearance/CustomBackgroundColor2", kind: kColor,
		apply:   func(p *Preferences, v any) { p.Appearance.CustomBackgroundColor2 = v.(Color) },
		extract: func(p Preferences) any { return p.Appearance.CustomBackgroundColor2 },
	},
	{
		key: "Appearance/WindowWidth", kind: kInt,
		apply:   func(p *Preferences, v any) { p.Appearance.WindowSize.Width = v.(int) },
		extract: func(p Preferences) any { return p.Appearance.WindowSize.Width },
	},
	{
		key: "Appearance/WindowHeight", kind: kInt,
		apply:   func(p *Preferences, v any) { p.Appearance.WindowSize.Height = v.(int) },
		extract: func(p Preferences) any { return p.Appearance.WindowSize.Height },
	},
	{
		key: "SyntaxHighlight/EnableSyntaxHighlight", kind: kBool,
		apply:   func(p *Preferences, v any) { p.SyntaxHighlight.Enabled = v.(bool) },
		extract: func(p Preferences) any { return p.SyntaxHighlight.Enabled },
	},
	{
		key: "SyntaxHighlight/NumberColor", kind: kColor,
		apply:   func(p *Preferences, v any) { p.SyntaxHighlight.NumberColor = v.(Color) },
		extract: func(p Preferences) any { return p.SyntaxHighlight.NumberColor },
	},
	{
		key: "SyntaxHighlight/FunctionColor", kind: kColor,
		apply:   func(p *Preferences, v any) { p.SyntaxHighlight.FunctionColor = v.(Color) },
		extract: func(p Preferences) any { return p.SyntaxHighlight.FunctionColor },
	},
	{
		key: "SyntaxHighlight/VariableColor", kind: kColor,
		apply:   func(p *Preferences, v any) { p.SyntaxHighlight.VariableColor = v.(Color) },
		extract: func(p Preferences) any { return p.SyntaxHighlight.VariableColor },
	},
	{
		key: "SyntaxHighlight/MatchedParenthesisColor", kind: kColor,
		apply:   func(p *Preferences, v any) { p.SyntaxHighlight.MatchedParenthesisColor = v.(Color) },
		extract: func(p Preferences) any { return p.SyntaxHighlight.MatchedParenthesisColor },
	},
}

func lookupField(key string) (field, bool) {
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// clampDigits enforces the upper bound only; values below -1 are kept.
func clampDigits(n int) int {
	return min(n, MaxDecimalDigits)
}

// formatValue renders a field value the way the CLI and logs show it.
func formatValue(kind fieldKind, v any) string {
	switch kind {
	case kColor:
		return v.(Color).Hex()
	case kFormat:
		return v.(Format).String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// parseValue is the inverse of formatValue.
func parseValue(kind fieldKind, s string) (any, error) {
	switch kind {
	case kString:
		return s, nil
	case kBool:
		return strconv.ParseBool(strings.TrimSpace(s))
	case kInt:
		return strconv.Atoi(strings.TrimSpace(s))
	case kColor:
		return ParseColor(s)
	case kFormat:
		f, ok := ParseFormat(strings.TrimSpace(s))
		if !ok {
			return nil, fmt.Errorf("invalid format %q: want General, Fixed or Exp", s)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %d", kind)
	}
}
