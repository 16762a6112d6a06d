package persona

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/swaggest/jsonschema-go"
)

// parseSchema decodes a tool's raw input schema. Undecodable schemas yield nil.
func parseSchema(raw json.RawMessage) *jsonschema.Schema {
	if len(raw) == 0 {
		return nil
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func schemaType(s *jsonschema.Schema) string {
	if s.Type != nil {
		if s.Type.SimpleTypes != nil {
			return string(*s.Type.SimpleTypes)
		}
		if len(s.Type.SliceOfSimpleTypeValues) > 0 {
			return string(s.Type.SliceOfSimpleTypeValues[0])
		}
	}
	return "object"
}

func enumSuffix(s *jsonschema.Schema) string {
	if len(s.Enum) == 0 {
		return ""
	}
	values := make([]string, 0, len(s.Enum))
	for _, e := range s.Enum {
		values = append(values, fmt.Sprintf(`"%v"`, e))
	}
	return fmt.Sprintf(" (enum: %s)", strings.Join(values, " | "))
}

// formatSchema renders a JSON schema as a compact outline for the prompt.
func formatSchema(schema *jsonschema.Schema, indentLevel int) string {
	if schema == nil {
		return "unknown"
	}

	indent := strings.Repeat("  ", indentLevel)
	parts := []string{}

	if schema.Description != nil && *schema.Description != "" {
		parts = append(parts, fmt.Sprintf("%s# %s", indent, *schema.Description))
	}

	line := indent + schemaType(schema) + enumSuffix(schema)
	if schema.Items == nil && len(schema.Properties) > 0 && len(schema.Required) > 0 {
		line += fmt.Sprintf(" (required: %s)", strings.Join(schema.Required, ", "))
	}
	parts = append(parts, line)

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := schema.Properties[name].TypeObject
		if prop == nil {
			continue
		}
		line := fmt.Sprintf("%s  %s: %s%s", indent, name, schemaType(prop), enumSuffix(prop))
		if prop.Description != nil && *prop.Description != "" {
			line += " # " + *prop.Description
		}
		parts = append(parts, line)
	}

	if schema.Items != nil && schema.Items.SchemaOrBool != nil && schema.Items.SchemaOrBool.TypeObject != nil {
		items := formatSchema(schema.Items.SchemaOrBool.TypeObject, indentLevel+1)
		parts = append(parts, fmt.Sprintf("%s  items: %s", indent, strings.TrimSpace(items)))
	}

	return strings.Join(parts, "\n")
}
