// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// JSONSchema is the lightweight field-rule schema used for worker
// input payloads. Full JSON Schema documents go through gojsonschema;
// this covers the quick structural checks workers run first.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type      string   `json:"type"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	Enum      []string `json:"enum,omitempty"`
	Pattern   *string  `json:"pattern,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput validates input against the schema with detailed errors.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	var errs []ValidationError

	for _, requiredField := range schema.Required {
		if _, exists := input[requiredField]; !exists {
			errs = append(errs, ValidationError{
				Field:   requiredField,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	for fieldName, value := range input {
		prop, exists := schema.Properties[fieldName]
		if !exists {
			if !schema.AdditionalProperties {
				errs = append(errs, ValidationError{
					Field:   fieldName,
					Message: "field not allowed in schema",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}
		errs = append(errs, validateField(fieldName, value, prop)...)
	}

	return &ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

func validateField(name string, value interface{}, prop Property) []ValidationError {
	var errs []ValidationError

	switch prop.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return []ValidationError{{Field: name, Message: "expected string", Code: "TYPE_MISMATCH"}}
		}
		if prop.MinLength != nil && len(s) < *prop.MinLength {
			errs = append(errs, ValidationError{
				Field: name, Code: "TOO_SHORT",
				Message: fmt.Sprintf("must be at least %d characters", *prop.MinLength),
			})
		}
		if prop.MaxLength != nil && len(s) > *prop.MaxLength {
			errs = append(errs, ValidationError{
				Field: name, Code: "TOO_LONG",
				Message: fmt.Sprintf("must be at most %d characters", *prop.MaxLength),
			})
		}
		if len(prop.Enum) > 0 && !containsFold(prop.Enum, strings.TrimSpace(s)) {
			errs = append(errs, ValidationError{
				Field: name, Code: "INVALID_ENUM",
				Message: fmt.Sprintf("must be one of: %s", strings.Join(prop.Enum, ", ")),
			})
		}
		if prop.Pattern != nil {
			if re, err := regexp.Compile(*prop.Pattern); err == nil && !re.MatchString(s) {
				errs = append(errs, ValidationError{
					Field: name, Code: "PATTERN_MISMATCH",
					Message: "does not match required pattern",
				})
			}
		}
	case "number":
		n, ok := toFloat(value)
		if !ok {
			return []ValidationError{{Field: name, Message: "expected number", Code: "TYPE_MISMATCH"}}
		}
		if prop.Minimum != nil && n < *prop.Minimum {
			errs = append(errs, ValidationError{
				Field: name, Code: "BELOW_MINIMUM",
				Message: fmt.Sprintf("must be >= %g", *prop.Minimum),
			})
		}
		if prop.Maximum != nil && n > *prop.Maximum {
			errs = append(errs, ValidationError{
				Field: name, Code: "ABOVE_MAXIMUM",
				Message: fmt.Sprintf("must be <= %g", *prop.Maximum),
			})
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			errs = append(errs, ValidationError{Field: name, Message: "expected boolean", Code: "TYPE_MISMATCH"})
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			errs = append(errs, ValidationError{Field: name, Message: "expected object", Code: "TYPE_MISMATCH"})
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			errs = append(errs, ValidationError{Field: name, Message: "expected array", Code: "TYPE_MISMATCH"})
		}
	}

	return errs
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
