package script

import (
	"encoding/base64"
	"errors"
	"testing"
)

const schemaXML = `<ScriptParameters SchemaVersion="1">
  <ParameterList>
    <Parameter Name="Key" Type="System.String" IsRequired="true" IsHidden="false"></Parameter>
    <Parameter Name="Value" Type="System.String" IsRequired="false" IsHidden="false">
      <DefaultValue>1</DefaultValue>
    </Parameter>
    <Parameter Name="AuditUser" Type="System.String" IsRequired="false" IsHidden="true">
      <DefaultValue>system</DefaultValue>
    </Parameter>
  </ParameterList>
</ScriptParameters>`

func encodeSchema(t *testing.T, xml string) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte(xml))
}

func TestDecodeSchema(t *testing.T) {
	schema, err := DecodeSchema(encodeSchema(t, schemaXML))
	if err != nil {
		t.Fatalf("Failed to decode schema: %v", err)
	}
	if schema == nil {
		t.Fatal("Expected a schema, got nil")
	}

	if len(schema.Params) != 3 {
		t.Fatalf("Expected 3 parameters, got %d", len(schema.Params))
	}

	key := schema.Params[0]
	if key.Name != "Key" || !key.Required || key.Hidden {
		t.Errorf("Unexpected first parameter: %+v", key)
	}

	value := schema.Params[1]
	if value.Name != "Value" || value.Required || value.DefaultValue != "1" {
		t.Errorf("Unexpected second parameter: %+v", value)
	}

	hidden := schema.Params[2]
	if hidden.Name != "AuditUser" || !hidden.Hidden || hidden.DefaultValue != "system" {
		t.Errorf("Unexpected third parameter: %+v", hidden)
	}
}

func TestDecodeSchemaAbsent(t *testing.T) {
	for _, encoded := range []string{"", "   "} {
		schema, err := DecodeSchema(encoded)
		if err != nil {
			t.Fatalf("Unexpected error for absent schema: %v", err)
		}
		if schema != nil {
			t.Errorf("Expected nil schema for input %q, got %+v", encoded, schema)
		}
	}
}

func TestDecodeSchemaZeroParameters(t *testing.T) {
	schema, err := DecodeSchema(encodeSchema(t, `<ScriptParameters SchemaVersion="1"><ParameterList></ParameterList></ScriptParameters>`))
	if err != nil {
		t.Fatalf("Failed to decode schema: %v", err)
	}
	if schema == nil {
		t.Fatal("Expected a non-nil schema: zero declared parameters is not the same as no schema")
	}
	if len(schema.Params) != 0 {
		t.Errorf("Expected 0 parameters, got %d", len(schema.Params))
	}
}

func TestDecodeSchemaBadBase64(t *testing.T) {
	_, err := DecodeSchema("not-base64!!!")
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Expected FormatError, got %v", err)
	}
}

func TestDecodeSchemaBadXML(t *testing.T) {
	_, err := DecodeSchema(encodeSchema(t, "<ScriptParameters><unclosed"))
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Expected FormatError, got %v", err)
	}
}

func TestDecodeSchemaUTF16LE(t *testing.T) {
	raw := append([]byte{0xFF, 0xFE}, utf16leBytes(`<ScriptParameters SchemaVersion="1"><ParameterList><Parameter Name="Key" Type="System.String" IsRequired="True" IsHidden="False"></Parameter></ParameterList></ScriptParameters>`)...)
	schema, err := DecodeSchema(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("Failed to decode UTF-16LE schema: %v", err)
	}
	if len(schema.Params) != 1 || schema.Params[0].Name != "Key" || !schema.Params[0].Required {
		t.Errorf("Unexpected parameters: %+v", schema.Params)
	}
}

func TestDecodeSchemaUTF8BOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte(schemaXML)...)
	schema, err := DecodeSchema(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("Failed to decode BOM-prefixed schema: %v", err)
	}
	if len(schema.Params) != 3 {
		t.Errorf("Expected 3 parameters, got %d", len(schema.Params))
	}
}
