package extdb

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Decoder converts text from the external database's character set to UTF-8.
type Decoder struct {
	name string
	enc  encoding.Encoding
}

// NewDecoder looks the encoding up by its WHATWG label ("utf-8", "latin1",
// "windows-1252", ...). An empty label means UTF-8.
func NewDecoder(label string) (*Decoder, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", label, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = label
	}
	if name == "utf-8" {
		enc = nil
	}
	return &Decoder{name: name, enc: enc}, nil
}

func (d *Decoder) Name() string { return d.name }

func (d *Decoder) Decode(s string) (string, error) {
	if d == nil || d.enc == nil {
		return s, nil
	}
	return d.enc.NewDecoder().String(s)
}
