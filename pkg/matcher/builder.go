package matcher

import (
	"github.com/yakwilikk/go-yamlls/pkg/document"
	keyv "github.com/yakwilikk/go-yamlls/pkg/keyvalidator"
	"github.com/yakwilikk/go-yamlls/pkg/problem"
	"github.com/yakwilikk/go-yamlls/pkg/schema"
	valv "github.com/yakwilikk/go-yamlls/pkg/valuevalidator"
)

// valueValidators translates the value keywords of s. Type, enum and
// const are handled by the walker because their outcome feeds branch
// scoring.
func valueValidators(s *schema.Schema) []problem.ValueValidator {
	var out []problem.ValueValidator

	// strings
	switch {
	case s.MinLength != nil && *s.MinLength == 1 && s.MaxLength == nil:
		out = append(out, valv.NonEmptyValidator{Kind: document.KindString})
	case s.MinLength != nil || s.MaxLength != nil:
		out = append(out, valv.LengthValidator{Kind: document.KindString, Min: s.MinLength, Max: s.MaxLength})
	}
	if s.PatternRegexp != nil {
		out = append(out, valv.RegexValidator{Pattern: s.PatternRegexp, Message: s.PatternErrorMessage})
	}
	switch {
	case s.Format == "uri":
		out = append(out, valv.URLValidator{RequireScheme: true})
	case s.Format == "uri-reference":
		out = append(out, valv.URLValidator{})
	case valv.KnownFormat(s.Format):
		out = append(out, valv.FormatValidator{Format: s.Format})
	}

	// numbers
	if s.Minimum != nil || s.Maximum != nil || s.ExclusiveMinimum != nil || s.ExclusiveMaximum != nil || s.MultipleOf != nil {
		out = append(out, valv.RangeValidator{
			Min:          s.Minimum,
			Max:          s.Maximum,
			ExclusiveMin: s.ExclusiveMinimum,
			ExclusiveMax: s.ExclusiveMaximum,
			MultipleOf:   s.MultipleOf,
		})
	}

	// arrays
	switch {
	case s.MinItems != nil && *s.MinItems == 1 && s.MaxItems == nil:
		out = append(out, valv.NonEmptyValidator{Kind: document.KindArray})
	case s.MinItems != nil || s.MaxItems != nil:
		out = append(out, valv.LengthValidator{Kind: document.KindArray, Min: s.MinItems, Max: s.MaxItems})
	}
	if s.UniqueItems {
		out = append(out, valv.UniqueItemsValidator{})
	}

	// objects
	if s.MinProperties != nil || s.MaxProperties != nil {
		out = append(out, valv.LengthValidator{Kind: document.KindObject, Min: s.MinProperties, Max: s.MaxProperties})
	}
	return out
}

// keyValidators translates a propertyNames schema.
func keyValidators(names *schema.Schema) []problem.KeyValidator {
	if names == nil {
		return nil
	}
	var out []problem.KeyValidator
	if names.IsFalse() {
		return append(out, keyv.AllowedKeyValidator{Message: "Property names are not allowed."})
	}
	if names.PatternRegexp != nil {
		out = append(out, keyv.RegexKeyValidator{Pattern: names.PatternRegexp, Message: names.PatternErrorMessage})
	}
	if names.MinLength != nil || names.MaxLength != nil {
		out = append(out, keyv.LengthKeyValidator{Min: names.MinLength, Max: names.MaxLength})
	}
	if allowed := stringLiterals(names.Enum); len(allowed) > 0 {
		out = append(out, keyv.AllowedKeyValidator{Allowed: allowed, Message: names.ErrorMessage})
	}
	if names.Const != nil && names.Const.Kind == schema.ValueString {
		out = append(out, keyv.AllowedKeyValidator{Allowed: []string{names.Const.Str}, Message: names.ErrorMessage})
	}
	if names.Not != nil {
		forbidden := stringLiterals(names.Not.Enum)
		if names.Not.Const != nil && names.Not.Const.Kind == schema.ValueString {
			forbidden = append(forbidden, names.Not.Const.Str)
		}
		if len(forbidden) > 0 {
			out = append(out, keyv.ForbiddenKeyValidator{Forbidden: forbidden})
		}
	}
	return out
}

func stringLiterals(values []schema.Value) []string {
	var out []string
	for _, v := range values {
		if v.Kind == schema.ValueString {
			out = append(out, v.Str)
		}
	}
	return out
}
