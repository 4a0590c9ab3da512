package recipes

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// Image is an inline picture, either a photo the user attached or one
// generated for a recipe. On the wire it is a base64 data URI.
type Image struct {
	MIMEType string
	Data     []byte
}

var ErrNotDataURI = errors.New("not a base64 data URI")

// ParseDataURI accepts data:<mime>;base64,<payload>.
func ParseDataURI(s string) (*Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrNotDataURI
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok || mime == "" {
		return nil, ErrNotDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDataURI, err)
	}
	if len(data) == 0 {
		data = nil
	}
	return &Image{MIMEType: mime, Data: data}, nil
}

func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// URL is the data URI typed so html/template keeps it in src attributes.
func (i Image) URL() template.URL {
	return template.URL(i.DataURI())
}

func (i Image) Clone() Image {
	return Image{MIMEType: i.MIMEType, Data: bytes.Clone(i.Data)}
}

func (i Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.DataURI())
}

func (i *Image) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDataURI(s)
	if err != nil {
		return err
	}
	*i = *parsed
	return nil
}
