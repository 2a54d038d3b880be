package prefs

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// Document codecs accepted by Export and Import.
const (
	CodecJSON = "json"
	CodecTOML = "toml"
)

// Export writes p as a JSON or TOML document.
func Export(w io.Writer, p Preferences, codec string) error {
	switch codec {
	case CodecJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case CodecTOML:
		return toml.NewEncoder(w).Encode(p)
	default:
		return fmt.Errorf("unknown document codec %q", codec)
	}
}

// Import reads a document written by Export. Fields missing from the document
// keep their defaults; unknown fields are an error. Decimal digits are
// clamped as on load.
func Import(r io.Reader, codec string) (Preferences, error) {
	p := Defaults()
	switch codec {
	case CodecJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Preferences{}, fmt.Errorf("parsing JSON document: %w", err)
		}
	case CodecTOML:
		md, err := toml.NewDecoder(r).Decode(&p)
		if err != nil {
			return Preferences{}, fmt.Errorf("parsing TOML document: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Preferences{}, fmt.Errorf("unknown keys in TOML document: %s", strings.Join(keys, ", "))
		}
	default:
		return Preferences{}, fmt.Errorf("unknown document codec %q", codec)
	}
	p.View.DecimalDigits = clampDigits(p.View.DecimalDigits)
	return p, nil
}

// CodecForPath guesses a codec from a file extension, defaulting to JSON.
func CodecForPath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".toml") {
		return CodecTOML
	}
	return CodecJSON
}
