package tools

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/llmtoolhub/toolhub-mcp-go/tools/types"
)

// ValidationError reports every violation found while checking arguments
// against a tool's declared schema, so the caller gets complete feedback
// in one round trip.
type ValidationError struct {
	Tool       string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, strings.Join(e.Violations, "; "))
}

// AsValidationError extracts a ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

// ValidateArgs checks args against the tool's declared schema. Unknown
// keys, missing required keys, type mismatches, and numeric bounds are
// all collected; the returned error enumerates every violation found.
func ValidateArgs(toolName string, schema *types.Schema, args map[string]any) error {
	var violations []string

	unknown := make([]string, 0)
	for name := range args {
		if _, ok := schema.Get(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		violations = append(violations, fmt.Sprintf("unknown argument %q", name))
	}

	schema.Each(func(name string, param types.Param) {
		value, present := args[name]
		if !present {
			if param.Required {
				violations = append(violations, fmt.Sprintf("missing required argument %q", name))
			}
			return
		}
		violations = append(violations, checkValue(name, param, value)...)
	})

	if len(violations) > 0 {
		return &ValidationError{Tool: toolName, Violations: violations}
	}
	return nil
}

func checkValue(name string, param types.Param, value any) []string {
	var violations []string

	mismatch := func() []string {
		return append(violations, fmt.Sprintf("argument %q must be of type %s, got %s", name, param.Type, describeType(value)))
	}

	switch param.Type {
	case types.TypeString:
		if _, ok := value.(string); !ok {
			return mismatch()
		}
	case types.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return mismatch()
		}
	case types.TypeInteger:
		num, ok := asNumber(value)
		if !ok || num != math.Trunc(num) {
			return mismatch()
		}
		violations = checkBounds(violations, name, param, num)
	case types.TypeNumber:
		num, ok := asNumber(value)
		if !ok {
			return mismatch()
		}
		violations = checkBounds(violations, name, param, num)
	case types.TypeArray:
		if _, ok := value.([]any); !ok {
			return mismatch()
		}
	case types.TypeObject:
		if _, ok := value.(map[string]any); !ok {
			return mismatch()
		}
	default:
		violations = append(violations, fmt.Sprintf("argument %q declares unsupported schema type %q", name, param.Type))
	}

	return violations
}

func checkBounds(violations []string, name string, param types.Param, num float64) []string {
	if param.Minimum != nil && num < *param.Minimum {
		violations = append(violations, fmt.Sprintf("argument %q must be >= %v, got %v", name, *param.Minimum, num))
	}
	if param.Maximum != nil && num > *param.Maximum {
		violations = append(violations, fmt.Sprintf("argument %q must be <= %v, got %v", name, *param.Maximum, num))
	}
	return violations
}

// asNumber accepts the numeric shapes produced by encoding/json as well
// as native Go integers supplied by in-process callers.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func describeType(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return types.TypeString
	case bool:
		return types.TypeBoolean
	case float64, float32, int, int32, int64:
		return types.TypeNumber
	case []any:
		return types.TypeArray
	case map[string]any:
		return types.TypeObject
	default:
		return fmt.Sprintf("%T", value)
	}
}
