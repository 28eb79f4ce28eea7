// Package schema defines the shapes callers request from structured
// extraction and validates provider output against them. A failed
// validation is a healable fault: the translate engine feeds the reason
// back into the retry loop.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"dirge/internal/types"
)

// FieldType enumerates the value types a shape field may declare.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeBool   FieldType = "bool"
	TypeList   FieldType = "list"
	TypeMap    FieldType = "map"
	TypeAny    FieldType = "any"
)

// Field declares one named, typed slot in an extraction shape.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
}

// Shape is the structure a caller expects extraction to produce.
type Shape struct {
	Name   string
	Fields []Field
}

// Describe renders the shape for prompt injection so the provider knows
// exactly which fields to produce.
func (s Shape) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Return a JSON object %q with these fields:\n", s.Name)
	for _, f := range s.Fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(&sb, "  - %s (%s, %s)", f.Name, f.Type, req)
		if f.Description != "" {
			fmt.Fprintf(&sb, ": %s", f.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Fingerprint is a stable digest over the shape declaration. Two extract
// calls with the same instruction and context but different shapes must
// derive different cache keys.
func (s Shape) Fingerprint() string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s:%v", f.Name, f.Type, f.Required))
	}
	sort.Strings(parts)
	h := sha256.Sum256([]byte(s.Name + "|" + strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])[:16]
}

// Validate checks record against the shape. Missing required fields and
// type mismatches fail; fields not declared in the shape are ignored.
func (s Shape) Validate(record map[string]any) error {
	if record == nil {
		return &types.SchemaValidationError{Field: "", Reason: "no structured record produced"}
	}
	for _, f := range s.Fields {
		v, ok := record[f.Name]
		if !ok || v == nil {
			if f.Required {
				return &types.SchemaValidationError{Field: f.Name, Reason: "required field missing"}
			}
			continue
		}
		if err := checkType(f, v); err != nil {
			return err
		}
	}
	return nil
}

func checkType(f Field, v any) error {
	ok := false
	switch f.Type {
	case TypeAny:
		ok = true
	case TypeString:
		_, ok = v.(string)
	case TypeBool:
		_, ok = v.(bool)
	case TypeFloat:
		switch v.(type) {
		case float64, float32, int, int64:
			ok = true
		}
	case TypeInt:
		// JSON numbers decode as float64; accept integral values.
		switch n := v.(type) {
		case int, int64:
			ok = true
		case float64:
			ok = n == math.Trunc(n)
		}
	case TypeList:
		_, ok = v.([]any)
	case TypeMap:
		_, ok = v.(map[string]any)
	}
	if !ok {
		return &types.SchemaValidationError{
			Field:  f.Name,
			Reason: fmt.Sprintf("expected %s, got %T", f.Type, v),
		}
	}
	return nil
}
