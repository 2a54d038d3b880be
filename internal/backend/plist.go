package backend

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// plistKeys returns the keys of the top-level dictionary of an XML property
// list, as printed by `defaults export <domain> -`.
func plistKeys(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		keys    []string
		depth   int
		inKey   bool
		current strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return keys, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing property list: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "dict":
				depth++
			case "key":
				if depth == 1 {
					inKey = true
					current.Reset()
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "dict":
				depth--
			case "key":
				if inKey {
					keys = append(keys, current.String())
					inKey = false
				}
			}
		case xml.CharData:
			if inKey {
				current.Write(t)
			}
		}
	}
}
