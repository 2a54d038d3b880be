package prefs

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/kalambet/calcprefs/internal/backend"
	"github.com/kalambet/calcprefs/internal/logging"
)

func newTestStore(t *testing.T) (*Store, *backend.Memory) {
	t.Helper()
	m := backend.NewMemory()
	return NewStore(m, WithLogger(logging.Discard())), m
}

// custom returns a record that differs from Defaults in every field.
func custom() Preferences {
	return Preferences{
		General: General{
			AngleMode:     AngleRadian,
			SaveHistory:   false,
			SaveVariables: false,
			AutoComplete:  false,
			AutoCalc:      false,
		},
		View: View{Format: FormatFixed, DecimalDigits: 12},
		Appearance: Appearance{
			ShowClearInputButton:   false,
			ShowEvaluateButton:     false,
			ShowKeyPad:             false,
			CustomAppearance:       true,
			CustomFont:             "Monospace,12,-1,5,75,0,0,0,0,0",
			CustomTextColor:        Color{0x12, 0x34, 0x56},
			CustomBackgroundColor1: Color{0x01, 0x02, 0x03},
			CustomBackgroundColor2: Color{0xfe, 0xdc, 0xba},
			WindowSize:             Size{Width: 640, Height: 480},
		},
		SyntaxHighlight: SyntaxHighlight{
			Enabled:                 false,
			NumberColor:             Color{0xaa, 0x00, 0x00},
			FunctionColor:           Color{0x00, 0xaa, 0x00},
			VariableColor:           Color{0x00, 0x00, 0xaa},
			MatchedParenthesisColor: Color{0x80, 0x80, 0x80},
		},
		History:   []string{"1+1", "sin(30)", "x*2"},
		Variables: []string{"ans=2", "x=1", "y=2.5"},
	}
}

func TestLoadEmptyBackendYieldsDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	p, r := s.Load()
	if !reflect.DeepEqual(p, Defaults()) {
		t.Errorf("Load on empty backend =\n%+v\nwant\n%+v", p, Defaults())
	}
	for _, key := range Keys() {
		if !r.Defaulted(key) {
			t.Errorf("Report.Defaulted(%q) = false on empty backend", key)
		}
	}
	if err := r.Err(); err != nil {
		t.Errorf("Report.Err() = %v, want nil for absent keys", err)
	}
}

func TestDefaultValues(t *testing.T) {
	p := Defaults()

	if p.General.AngleMode != "degree" {
		t.Errorf("AngleMode = %q, want degree", p.General.AngleMode)
	}
	if p.View.Format != FormatGeneral {
		t.Errorf("Format = %v, want General", p.View.Format)
	}
	if p.View.DecimalDigits != -1 {
		t.Errorf("DecimalDigits = %d, want -1", p.View.DecimalDigits)
	}
	if p.Appearance.CustomAppearance {
		t.Error("CustomAppearance = true, want false")
	}
	if p.Appearance.WindowSize.IsSet() {
		t.Errorf("WindowSize = %+v, want unset", p.Appearance.WindowSize)
	}

	colors := map[string]Color{
		"#000000": p.Appearance.CustomTextColor,
		"#ffffff": p.Appearance.CustomBackgroundColor1,
		"#eeeeee": p.Appearance.CustomBackgroundColor2,
		"#00007f": p.SyntaxHighlight.NumberColor,
		"#550000": p.SyntaxHighlight.FunctionColor,
		"#005500": p.SyntaxHighlight.VariableColor,
		"#ffffb7": p.SyntaxHighlight.MatchedParenthesisColor,
	}
	for want, c := range colors {
		if c.Hex() != want {
			t.Errorf("color = %s, want %s", c.Hex(), want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	want := custom()

	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, r := s.Load()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip =\n%+v\nwant\n%+v", got, want)
	}
	if len(r.Fallbacks) != 0 {
		t.Errorf("Fallbacks after round trip = %+v, want none", r.Fallbacks)
	}
}

func TestRoundTripPersistentBackends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		kind string
		path string
	}{
		{backend.KindJSON, filepath.Join(dir, "settings.json")},
		{backend.KindYAML, filepath.Join(dir, "settings.yaml")},
		{backend.KindSQLite, filepath.Join(dir, "settings.db")},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			b, err := backend.Open(tt.kind, tt.path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := NewStore(b, WithLogger(logging.Discard())).Save(custom()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := backend.Close(b); err != nil {
				t.Fatalf("Close: %v", err)
			}

			b, err = backend.Open(tt.kind, tt.path)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer backend.Close(b)

			got, _ := NewStore(b, WithLogger(logging.Discard())).Load()
			if !reflect.DeepEqual(got, custom()) {
				t.Errorf("round trip =\n%+v\nwant\n%+v", got, custom())
			}
		})
	}
}

func TestDecimalDigitsClamp(t *testing.T) {
	tests := []struct {
		stored int
		want   int
	}{
		{150, 70},
		{71, 70},
		{70, 70},
		{-1, -1},
		{-5, -5},
	}
	for _, tt := range tests {
		s, m := newTestStore(t)
		m.SetInt("SpeedCrunch/View/DecimalDigits", tt.stored)

		p, _ := s.Load()
		if p.View.DecimalDigits != tt.want {
			t.Errorf("stored %d: DecimalDigits = %d, want %d", tt.stored, p.View.DecimalDigits, tt.want)
		}
	}
}

func TestDecimalDigitsMalformed(t *testing.T) {
	s, m := newTestStore(t)
	m.SetString("SpeedCrunch/View/DecimalDigits", "lots")

	p, r := s.Load()
	if p.View.DecimalDigits != AutoDecimalDigits {
		t.Errorf("DecimalDigits = %d, want %d", p.View.DecimalDigits, AutoDecimalDigits)
	}
	if !r.Defaulted("View/DecimalDigits") {
		t.Error("View/DecimalDigits not reported as defaulted")
	}
	if r.Err() == nil {
		t.Error("Report.Err() = nil, want parse error")
	}
}

func TestHistoryTruncatedToLast100(t *testing.T) {
	s, _ := newTestStore(t)
	p := Defaults()
	for i := 0; i < 150; i++ {
		p.AddHistory(fmt.Sprintf("%d+1", i))
	}

	if err := s.Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(p.History) != 150 {
		t.Errorf("Save mutated history: len = %d, want 150", len(p.History))
	}

	got, _ := s.Load()
	if len(got.History) != MaxHistory {
		t.Fatalf("len(History) = %d, want %d", len(got.History), MaxHistory)
	}
	for i, entry := range got.History {
		if want := fmt.Sprintf("%d+1", i+50); entry != want {
			t.Fatalf("History[%d] = %q, want %q", i, entry, want)
		}
	}
}

func TestSaveRemovesStaleHistoryEntries(t *testing.T) {
	s, m := newTestStore(t)
	p := Defaults()
	p.History = []string{"a", "b", "c", "d", "e"}
	s.Save(p)

	p.History = []string{"f", "g"}
	s.Save(p)

	if _, ok, _ := m.GetString("SpeedCrunch/History/Expression2"); ok {
		t.Error("Expression2 still stored after history shrank")
	}
	if n, _, _ := m.GetInt("SpeedCrunch/History/Count"); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
	got, _ := s.Load()
	if !reflect.DeepEqual(got.History, []string{"f", "g"}) {
		t.Errorf("History = %q, want [f g]", got.History)
	}
}

func TestHistoryControlCharacters(t *testing.T) {
	s, m := newTestStore(t)
	p := Defaults()
	p.History = []string{"1+\t2", "sqrt(\n4)", "plain"}

	if err := s.Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if raw, _, _ := m.GetString("SpeedCrunch/History/Expression0"); raw != "1+\t2" {
		t.Errorf("stored entry = %q, want it verbatim", raw)
	}

	got, _ := s.Load()
	want := []string{"1+2", "sqrt(4)", "plain"}
	if !reflect.DeepEqual(got.History, want) {
		t.Errorf("History = %q, want %q", got.History, want)
	}
}

// An entry made only of control characters loads as an empty string instead
// of being skipped. Empty stored entries are skipped.
func TestLoadKeepsEntryEmptiedByStripping(t *testing.T) {
	s, m := newTestStore(t)
	m.SetInt("SpeedCrunch/History/Count", 4)
	m.SetString("SpeedCrunch/History/Expression0", "1")
	m.SetString("SpeedCrunch/History/Expression1", "\t\r\n")
	m.SetString("SpeedCrunch/History/Expression2", "")
	m.SetString("SpeedCrunch/History/Expression3", "2")

	p, _ := s.Load()
	want := []string{"1", "", "2"}
	if !reflect.DeepEqual(p.History, want) {
		t.Errorf("History = %q, want %q", p.History, want)
	}
}

func TestHistoryCountBeyondEntries(t *testing.T) {
	s, m := newTestStore(t)
	m.SetInt("SpeedCrunch/History/Count", 3)
	m.SetString("SpeedCrunch/History/Expression0", "only")

	p, _ := s.Load()
	if !reflect.DeepEqual(p.History, []string{"only"}) {
		t.Errorf("History = %q, want [only]", p.History)
	}
}

func TestVariablesRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	p := Defaults()
	p.Variables = []string{"y=2", "x=1"}

	if err := s.Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := s.Load()

	sorted := append([]string(nil), got.Variables...)
	sort.Strings(sorted)
	if !reflect.DeepEqual(sorted, []string{"x=1", "y=2"}) {
		t.Errorf("Variables = %q, want x=1 and y=2", got.Variables)
	}
}

func TestMalformedVariablesDropped(t *testing.T) {
	s, m := newTestStore(t)
	p := Defaults()
	p.Variables = []string{"z", "w=1=2", "=3", "v=", "a/b=4", "ok=5"}

	if err := s.Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	names, _ := m.Children("SpeedCrunch/Variables")
	if !reflect.DeepEqual(names, []string{"ok"}) {
		t.Errorf("stored variables = %v, want [ok]", names)
	}

	got, _ := s.Load()
	if !reflect.DeepEqual(got.Variables, []string{"ok=5"}) {
		t.Errorf("Variables = %q, want [ok=5]", got.Variables)
	}
}

func TestSaveRemovesStaleVariables(t *testing.T) {
	s, m := newTestStore(t)
	m.SetString("SpeedCrunch/Variables/old", "7")

	p := Defaults()
	p.Variables = []string{"new=8"}
	s.Save(p)

	if _, ok, _ := m.GetString("SpeedCrunch/Variables/old"); ok {
		t.Error("stale variable kept after Save")
	}
}

func TestLoadSkipsEmptyVariableValues(t *testing.T) {
	s, m := newTestStore(t)
	m.SetString("SpeedCrunch/Variables/a", "1")
	m.SetString("SpeedCrunch/Variables/blank", "")

	p, _ := s.Load()
	if !reflect.DeepEqual(p.Variables, []string{"a=1"}) {
		t.Errorf("Variables = %q, want [a=1]", p.Variables)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatGeneral, FormatFixed, FormatExponential} {
		s, _ := newTestStore(t)
		p := Defaults()
		p.View.Format = f
		s.Save(p)

		got, _ := s.Load()
		if got.View.Format != f {
			t.Errorf("Format = %v, want %v", got.View.Format, f)
		}
	}
}

func TestFormatStoredSpelling(t *testing.T) {
	s, m := newTestStore(t)
	p := Defaults()
	p.View.Format = FormatExponential
	s.Save(p)

	if raw, _, _ := m.GetString("SpeedCrunch/View/Format"); raw != "Exp" {
		t.Errorf("stored format = %q, want Exp", raw)
	}
}

func TestUnrecognizedFormat(t *testing.T) {
	s, m := newTestStore(t)
	m.SetString("SpeedCrunch/View/Format", "Bogus")

	p, r := s.Load()
	if p.View.Format != FormatGeneral {
		t.Errorf("Format = %v, want General", p.View.Format)
	}
	if !r.Defaulted("View/Format") {
		t.Error("View/Format not reported as defaulted")
	}

	prev := Defaults()
	prev.View.Format = FormatFixed
	s.LoadInto(&prev)
	if prev.View.Format != FormatFixed {
		t.Errorf("LoadInto replaced Format with %v, want previous Fixed", prev.View.Format)
	}

	m.Delete("SpeedCrunch/View/Format")
	s.LoadInto(&prev)
	if prev.View.Format != FormatFixed {
		t.Errorf("LoadInto with absent key replaced Format with %v, want previous Fixed", prev.View.Format)
	}
}

func TestLoadIntoResetsOtherFieldsToDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	p := custom()

	s.LoadInto(&p)
	want := Defaults()
	want.View.Format = FormatFixed
	if !reflect.DeepEqual(p, want) {
		t.Errorf("LoadInto on empty backend =\n%+v\nwant\n%+v", p, want)
	}
}

func TestColorFallbacks(t *testing.T) {
	s, m := newTestStore(t)
	m.SetString("SpeedCrunch/Appearance/CustomTextColor", "not-a-color")
	m.SetString("SpeedCrunch/SyntaxHighlight/NumberColor", "#ABCDEF")
	m.SetString("SpeedCrunch/SyntaxHighlight/FunctionColor", "#f00")

	p, r := s.Load()
	if got := p.Appearance.CustomTextColor.Hex(); got != "#000000" {
		t.Errorf("CustomTextColor = %s, want default #000000", got)
	}
	if !r.Defaulted("Appearance/CustomTextColor") {
		t.Error("CustomTextColor not reported as defaulted")
	}
	if got := p.SyntaxHighlight.NumberColor.Hex(); got != "#abcdef" {
		t.Errorf("NumberColor = %s, want #abcdef", got)
	}
	if got := p.SyntaxHighlight.FunctionColor.Hex(); got != "#ff0000" {
		t.Errorf("FunctionColor = %s, want #ff0000", got)
	}
	if got := p.SyntaxHighlight.VariableColor.Hex(); got != "#005500" {
		t.Errorf("VariableColor = %s, want #005500", got)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	s, m := newTestStore(t)
	p := custom()

	s.Save(p)
	first := m.Len()
	s.Save(p)
	if m.Len() != first {
		t.Errorf("key count changed between saves: %d -> %d", first, m.Len())
	}
	got, _ := s.Load()
	if !reflect.DeepEqual(got, p) {
		t.Errorf("second save changed the stored record")
	}
}

func TestSaveKeyLayout(t *testing.T) {
	s, m := newTestStore(t)
	p := custom()
	s.Save(p)

	if w, _, _ := m.GetInt("SpeedCrunch/Appearance/WindowWidth"); w != 640 {
		t.Errorf("WindowWidth = %d, want 640", w)
	}
	if h, _, _ := m.GetInt("SpeedCrunch/Appearance/WindowHeight"); h != 480 {
		t.Errorf("WindowHeight = %d, want 480", h)
	}
	if v, ok, _ := m.GetBool("SpeedCrunch/SyntaxHighlight/EnableSyntaxHighlight"); !ok || v {
		t.Errorf("EnableSyntaxHighlight = %v, %v; want false", v, ok)
	}
	if c, _, _ := m.GetString("SpeedCrunch/Appearance/CustomBackgroundColor2"); c != "#fedcba" {
		t.Errorf("CustomBackgroundColor2 = %q, want #fedcba", c)
	}
	if n, _, _ := m.GetInt("SpeedCrunch/History/Count"); n != 3 {
		t.Errorf("History/Count = %d, want 3", n)
	}
	if v, _, _ := m.GetString("SpeedCrunch/Variables/y"); v != "2.5" {
		t.Errorf("Variables/y = %q, want 2.5", v)
	}
}

func TestWithNamespace(t *testing.T) {
	m := backend.NewMemory()
	s := NewStore(m, WithNamespace("OtherCalc"), WithLogger(logging.Discard()))
	if s.Namespace() != "OtherCalc" {
		t.Errorf("Namespace() = %q, want OtherCalc", s.Namespace())
	}
	s.Save(Defaults())

	if _, ok, _ := m.GetString("OtherCalc/General/AngleMode"); !ok {
		t.Error("AngleMode not stored under OtherCalc")
	}
	if _, ok, _ := m.GetString("SpeedCrunch/General/AngleMode"); ok {
		t.Error("AngleMode stored under default namespace")
	}
}

// brokenBackend fails every operation.
type brokenBackend struct{}

var errBroken = errors.New("permission denied")

func (brokenBackend) GetString(string) (string, bool, error) { return "", false, errBroken }
func (brokenBackend) GetInt(string) (int, bool, error)       { return 0, false, errBroken }
func (brokenBackend) GetBool(string) (bool, bool, error)     { return false, false, errBroken }
func (brokenBackend) SetString(string, string) error         { return errBroken }
func (brokenBackend) SetInt(string, int) error               { return errBroken }
func (brokenBackend) SetBool(string, bool) error             { return errBroken }
func (brokenBackend) Delete(string) error                    { return errBroken }
func (brokenBackend) Children(string) ([]string, error)      { return nil, errBroken }

func TestBrokenBackend(t *testing.T) {
	s := NewStore(brokenBackend{}, WithLogger(logging.Discard()))

	p, r := s.Load()
	if !reflect.DeepEqual(p, Defaults()) {
		t.Errorf("Load on broken backend = %+v, want defaults", p)
	}
	if !errors.Is(r.Err(), errBroken) {
		t.Errorf("Report.Err() = %v, want it to wrap %v", r.Err(), errBroken)
	}

	err := s.Save(custom())
	if !errors.Is(err, errBroken) {
		t.Errorf("Save error = %v, want it to wrap %v", err, errBroken)
	}
}

func TestSplitVariable(t *testing.T) {
	tests := []struct {
		entry       string
		name, value string
		ok          bool
	}{
		{"x=1", "x", "1", true},
		{"ans=-2.5e3", "ans", "-2.5e3", true},
		{"z", "", "", false},
		{"a=b=c", "", "", false},
		{"=1", "", "", false},
		{"x=", "", "", false},
		{"a/b=1", "", "", false},
	}
	for _, tt := range tests {
		name, value, ok := SplitVariable(tt.entry)
		if name != tt.name || value != tt.value || ok != tt.ok {
			t.Errorf("SplitVariable(%q) = %q, %q, %v; want %q, %q, %v",
				tt.entry, name, value, ok, tt.name, tt.value, tt.ok)
		}
	}
}

func TestRetainedHistory(t *testing.T) {
	short := []string{"a", "b"}
	if got := RetainedHistory(short); !reflect.DeepEqual(got, short) {
		t.Errorf("RetainedHistory(short) = %q", got)
	}
	long := make([]string, 101)
	long[0], long[1], long[100] = "dropped", "first", "last"
	got := RetainedHistory(long)
	if len(got) != 100 || got[0] != "first" || got[99] != "last" {
		t.Errorf("RetainedHistory(101) kept len %d, first %q, last %q", len(got), got[0], got[len(got)-1])
	}
}
