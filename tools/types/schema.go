package types

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/llmtoolhub/toolhub-mcp-go/mcp"
)

// Parameter type names accepted by the schema dialect.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Param describes one declared parameter option.
type Param struct {
	Type        string
	Description string
	Default     any
	Minimum     *float64
	Maximum     *float64
	Required    bool
}

// Schema is a tool's declared parameter schema: an ordered property map
// whose declaration order is preserved in the translated catalog entry.
type Schema struct {
	params *orderedmap.OrderedMap[string, Param]
}

// NewSchema creates an empty parameter schema.
func NewSchema() *Schema {
	return &Schema{params: orderedmap.New[string, Param]()}
}

// Add declares a parameter option. Re-declaring a name overwrites the
// previous option in place. Returns the schema for chaining.
func (s *Schema) Add(name string, param Param) *Schema {
	s.params.Set(name, param)
	return s
}

// Get returns the declared option for name.
func (s *Schema) Get(name string) (Param, bool) {
	return s.params.Get(name)
}

// Len returns the number of declared options.
func (s *Schema) Len() int {
	return s.params.Len()
}

// Names returns the declared parameter names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, 0, s.params.Len())
	for pair := s.params.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Required returns the required parameter names in declaration order.
func (s *Schema) Required() []string {
	required := make([]string, 0, s.params.Len())
	for pair := s.params.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Required {
			required = append(required, pair.Key)
		}
	}
	return required
}

// Each calls fn for every declared option in declaration order.
func (s *Schema) Each(fn func(name string, param Param)) {
	for pair := s.params.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// ToInputSchema translates the declared options into the protocol's
// schema dialect: a type-object schema whose properties and required set
// mirror the declarations, including type, description, default, and
// numeric bounds.
func (s *Schema) ToInputSchema() mcp.InputSchema {
	properties := make(map[string]any, s.params.Len())
	required := make([]string, 0, s.params.Len())

	for pair := s.params.Oldest(); pair != nil; pair = pair.Next() {
		name, param := pair.Key, pair.Value

		prop := map[string]any{"type": param.Type}
		if param.Description != "" {
			prop["description"] = param.Description
		}
		if param.Default != nil {
			prop["default"] = param.Default
		}
		if param.Minimum != nil {
			prop["minimum"] = *param.Minimum
		}
		if param.Maximum != nil {
			prop["maximum"] = *param.Maximum
		}
		properties[name] = prop

		if param.Required {
			required = append(required, name)
		}
	}

	return mcp.InputSchema{
		Type:       TypeObject,
		Properties: properties,
		Required:   required,
	}
}

// Float returns a pointer to v, for declaring numeric bounds inline.
func Float(v float64) *float64 {
	return &v
}
