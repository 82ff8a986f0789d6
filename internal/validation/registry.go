package validation

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnknownEntityType is returned when no schema is registered under a name.
var ErrUnknownEntityType = eris.New("validation: unknown entity type")

// ValidationError reports critical failures found while cleaning a record.
type ValidationError struct {
	Entity   string
	Field    string
	Value    any
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: critical errors in %s (field %s): %s",
		e.Entity, e.Field, strings.Join(e.Messages, "; "))
}

// Binding attaches a validator to a field.
type Binding struct {
	Field     string
	Validator Validator
}

// Schema is the ordered field set of one table.
type Schema struct {
	Kind     string
	Aliases  []string
	Bindings []Binding
}

// NewSchema builds a schema whose bindings follow the validator order.
func NewSchema(kind string, aliases []string, validators ...Validator) Schema {
	s := Schema{Kind: kind, Aliases: aliases, Bindings: make([]Binding, len(validators))}
	for i, v := range validators {
		s.Bindings[i] = Binding{Field: v.Field(), Validator: v}
	}
	return s
}

// Fields returns the bound field names in order.
func (s Schema) Fields() []string {
	out := make([]string, len(s.Bindings))
	for i, b := range s.Bindings {
		out[i] = b.Field
	}
	return out
}

// Registry resolves entity type names to schemas. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	byName map[string]Schema
	kinds  []string
}

// NewRegistry indexes schemas by kind and every alias.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{byName: make(map[string]Schema)}
	for _, s := range schemas {
		if s.Kind == "" {
			return nil, eris.New("validation: schema without kind")
		}
		for _, name := range append([]string{s.Kind}, s.Aliases...) {
			if _, dup := r.byName[name]; dup {
				return nil, eris.Errorf("validation: duplicate schema name %q", name)
			}
			r.byName[name] = s
		}
		r.kinds = append(r.kinds, s.Kind)
	}
	return r, nil
}

// Kinds returns the canonical schema kinds in registration order.
func (r *Registry) Kinds() []string {
	return append([]string(nil), r.kinds...)
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (Schema, error) {
	s, ok := r.byName[name]
	if !ok {
		return Schema{}, eris.Wrapf(ErrUnknownEntityType, "validation: %q", name)
	}
	return s, nil
}

// ValidateEntity validates every bound field of fields, in schema order.
// Fields missing from the map are validated as absent.
func (r *Registry) ValidateEntity(name string, fields map[string]any) ([]Result, error) {
	s, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(s.Bindings))
	var errs, warns int
	for i, b := range s.Bindings {
		res := b.Validator.Validate(fields[b.Field])
		switch {
		case res.Hard():
			errs++
		case res.Warning():
			warns++
		}
		results[i] = res
	}

	zap.L().Debug("validation: entity checked",
		zap.String("entity", name),
		zap.Bool("passed", errs == 0),
		zap.Int("errors", errs),
		zap.Int("warnings", warns),
	)
	return results, nil
}

// Clean validates fields and returns a copy with suggested values applied.
// Any critical failure aborts with a *ValidationError.
func (r *Registry) Clean(name string, fields map[string]any) (map[string]any, error) {
	results, err := r.ValidateEntity(name, fields)
	if err != nil {
		return nil, err
	}

	var crit *ValidationError
	for _, res := range results {
		if res.Valid || res.Severity != SeverityCritical {
			continue
		}
		if crit == nil {
			crit = &ValidationError{Entity: name, Field: res.Field, Value: res.Value}
		}
		crit.Messages = append(crit.Messages, res.Message)
	}
	if crit != nil {
		return nil, crit
	}

	cleaned := make(map[string]any, len(fields))
	for k, v := range fields {
		cleaned[k] = v
	}
	for _, res := range results {
		if res.Suggested != nil {
			cleaned[res.Field] = res.Suggested
			zap.L().Debug("validation: applied suggested value",
				zap.String("entity", name),
				zap.String("field", res.Field),
			)
		}
	}
	return cleaned, nil
}
