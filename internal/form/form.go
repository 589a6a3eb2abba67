// Package form models the host form surface the activity adapters drive:
// field registration, defaults, conditional visibility and submitted values.
// Schemas are serialised to the host UI as JSON; submissions come back as
// flat string values.
package form

import "strconv"

// FieldType enumerates supported field kinds.
type FieldType string

const (
	FieldHidden   FieldType = "hidden"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldStatic   FieldType = "static"
	FieldGroup    FieldType = "group"
	FieldDate     FieldType = "date"
)

// RuleKind enumerates conditional behaviours applied to a field.
type RuleKind string

const (
	RuleDisabledIf RuleKind = "disabled_if"
	RuleHideIf     RuleKind = "hide_if"
)

// Condition enumerates rule comparisons.
type Condition string

const (
	CondEq         Condition = "eq"
	CondNeq        Condition = "neq"
	CondNotChecked Condition = "notchecked"
)

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Rule ties a field's state to another field's submitted value.
type Rule struct {
	Kind      RuleKind  `json:"kind"`
	Field     string    `json:"field"`
	Condition Condition `json:"condition"`
	Value     string    `json:"value,omitempty"`
}

// Field is one element of a form schema. Group fields nest their members.
type Field struct {
	Name    string    `json:"name"`
	Type    FieldType `json:"type"`
	Label   string    `json:"label,omitempty"`
	Text    string    `json:"text,omitempty"`
	Default string    `json:"default,omitempty"`
	Options []Option  `json:"options,omitempty"`
	Fields  []Field   `json:"fields,omitempty"`
	Rules   []Rule    `json:"rules,omitempty"`
}

// Schema is an ordered collection of fields.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Add appends a field to the schema.
func (s *Schema) Add(f Field) {
	s.Fields = append(s.Fields, f)
}

// InsertBefore places a field ahead of the named one, or appends when the
// anchor is absent.
func (s *Schema) InsertBefore(f Field, anchor string) {
	for i := range s.Fields {
		if s.Fields[i].Name == anchor {
			s.Fields = append(s.Fields[:i], append([]Field{f}, s.Fields[i:]...)...)
			return
		}
	}
	s.Fields = append(s.Fields, f)
}

// Remove deletes the named field, reporting whether it existed.
func (s *Schema) Remove(name string) bool {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			s.Fields = append(s.Fields[:i], s.Fields[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the named field, searching group members too.
func (s *Schema) Get(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
		for j := range s.Fields[i].Fields {
			if s.Fields[i].Fields[j].Name == name {
				return &s.Fields[i].Fields[j]
			}
		}
	}
	return nil
}

// SetDefault assigns a default value to the named field if present.
func (s *Schema) SetDefault(name, value string) {
	if f := s.Get(name); f != nil {
		f.Default = value
	}
}

// Values holds a flat form submission.
type Values map[string]string

// Has reports whether the field was submitted at all.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// String returns the raw submitted value.
func (v Values) String(name string) string {
	return v[name]
}

// Int parses the value as a base-10 integer, returning 0 when absent or
// malformed.
func (v Values) Int(name string) int64 {
	n, err := strconv.ParseInt(v[name], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Bool treats "1" and "true" as set.
func (v Values) Bool(name string) bool {
	raw := v[name]
	return raw == "1" || raw == "true"
}
