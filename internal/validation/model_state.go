package validation

import "sort"

// ModelState collects per-field validation messages for a bound form.
// The zero value is ready to use and valid.
type ModelState struct {
	errors map[string][]string
}

// NewModelState creates an empty, valid ModelState
func NewModelState() *ModelState {
	return &ModelState{}
}

// AddError records a message against a field
func (m *ModelState) AddError(field, message string) {
	if m.errors == nil {
		m.errors = make(map[string][]string)
	}
	m.errors[field] = append(m.errors[field], message)
}

// IsValid reports whether no errors have been recorded.
// A nil ModelState is valid.
func (m *ModelState) IsValid() bool {
	return m == nil || len(m.errors) == 0
}

// Errors returns the messages recorded for field
func (m *ModelState) Errors(field string) []string {
	if m == nil {
		return nil
	}
	return m.errors[field]
}

// Fields returns the names of all fields with errors, sorted
func (m *ModelState) Fields() []string {
	if m == nil {
		return nil
	}
	fields := make([]string, 0, len(m.errors))
	for field := range m.errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
