// Package script implements the write and read paths for remote script
// execution: it encodes an approved script invocation into the wire envelope
// the execution agent verifies, submits it as a generic client operation,
// and consolidates the asynchronous per-endpoint records the backend tracks
// into a single status view.
package script

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"strings"
	"unicode/utf16"

	"github.com/joshburkard/MECMAdminService-sub003/internal/models"
)

// Schema is a script's decoded parameter declaration. A nil *Schema means
// the script carries no declaration at all and validation is skipped; a
// non-nil Schema with zero Params means the script declares no parameters.
type Schema struct {
	Version string
	Params  []models.ParameterSpec
}

type schemaDoc struct {
	XMLName       xml.Name      `xml:"ScriptParameters"`
	SchemaVersion string        `xml:"SchemaVersion,attr"`
	Params        []schemaParam `xml:"ParameterList>Parameter"`
}

type schemaParam struct {
	Name         string `xml:"Name,attr"`
	Type         string `xml:"Type,attr"`
	IsRequired   string `xml:"IsRequired,attr"`
	IsHidden     string `xml:"IsHidden,attr"`
	DefaultValue string `xml:"DefaultValue"`
}

// DecodeSchema decodes a base64-encoded XML parameter declaration into a
// Schema, preserving declaration order. An empty input returns (nil, nil):
// the script has no schema, which callers must treat differently from a
// schema with zero parameters.
func DecodeSchema(encoded string) (*Schema, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, &FormatError{Detail: "parameter schema base64", Err: err}
	}

	var doc schemaDoc
	if err := xml.Unmarshal(normalizeXMLBytes(raw), &doc); err != nil {
		return nil, &FormatError{Detail: "parameter schema XML", Err: err}
	}

	schema := &Schema{Version: doc.SchemaVersion, Params: []models.ParameterSpec{}}
	for _, p := range doc.Params {
		schema.Params = append(schema.Params, models.ParameterSpec{
			Name:         p.Name,
			Type:         p.Type,
			Required:     parseFlag(p.IsRequired),
			Hidden:       parseFlag(p.IsHidden),
			DefaultValue: p.DefaultValue,
		})
	}

	return schema, nil
}

// normalizeXMLBytes strips a leading byte order mark and converts UTF-16LE
// documents to UTF-8. The backend stores the schema blob in whichever
// encoding the authoring console used.
func normalizeXMLBytes(raw []byte) []byte {
	if len(raw) >= 2 && raw[0] == 0xFF && raw[1] == 0xFE {
		units := make([]uint16, 0, (len(raw)-2)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			units = append(units, binary.LittleEndian.Uint16(raw[i:]))
		}
		return []byte(string(utf16.Decode(units)))
	}
	if len(raw) >= 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF {
		return raw[3:]
	}
	return raw
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
