// Copyright (c) Microsoft. All rights reserved.

package agentloop

import (
	"encoding/json"
	"reflect"
	"strings"
)

// jsonSchema is the subset of JSON Schema the registry understands: enough to
// describe tool parameters to a model backend and to validate the arguments
// it sends back.
type jsonSchema struct {
	Type                 string                 `json:"type,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Properties           map[string]*jsonSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *jsonSchema            `json:"items,omitempty"`
	Enum                 []any                  `json:"enum,omitempty"`
	AdditionalProperties *jsonSchema            `json:"additionalProperties,omitempty"`
}

// GenerateSchema builds a JSON Schema for a Go struct type using reflection.
// Supported struct tags: json (field name), jsonschema (description,
// required, enum).
func GenerateSchema[T any]() json.RawMessage {
	var zero T
	t := reflect.TypeOf(zero)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s := schemaForType(t)
	b, _ := json.Marshal(s)
	return b
}

func schemaForType(t reflect.Type) *jsonSchema {
	if t == nil {
		return &jsonSchema{Type: "object"}
	}
	switch t.Kind() {
	case reflect.String:
		return &jsonSchema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &jsonSchema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &jsonSchema{Type: "number"}
	case reflect.Bool:
		return &jsonSchema{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &jsonSchema{Type: "array", Items: schemaForType(t.Elem())}
	case reflect.Ptr:
		return schemaForType(t.Elem())
	case reflect.Struct:
		return schemaForStruct(t)
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return &jsonSchema{Type: "object", AdditionalProperties: schemaForType(t.Elem())}
		}
		return &jsonSchema{Type: "object"}
	default:
		return &jsonSchema{Type: "string"}
	}
}

func schemaForStruct(t reflect.Type) *jsonSchema {
	s := &jsonSchema{
		Type:       "object",
		Properties: make(map[string]*jsonSchema),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := field.Name
		if jsonTag != "" {
			if head, _, _ := strings.Cut(jsonTag, ","); head != "" {
				name = head
			}
		}

		prop := schemaForType(field.Type)

		for _, part := range strings.Split(field.Tag.Get("jsonschema"), ",") {
			key, val, _ := strings.Cut(part, "=")
			switch strings.TrimSpace(key) {
			case "description":
				prop.Description = strings.TrimSpace(val)
			case "required":
				s.Required = append(s.Required, name)
			case "enum":
				for _, ev := range strings.Split(val, "|") {
					prop.Enum = append(prop.Enum, strings.TrimSpace(ev))
				}
			}
		}

		s.Properties[name] = prop
	}

	return s
}

// parseSchema decodes a raw tool parameter schema for argument validation.
// Unparseable schemas disable validation rather than failing registration.
func parseSchema(raw json.RawMessage) *jsonSchema {
	if len(raw) == 0 {
		return nil
	}
	var s jsonSchema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}
