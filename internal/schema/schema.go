// Package schema validates raw frontmatter mappings against the content contract
// and turns them into typed records.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/d2chub/internal/apperr"
	"github.com/starford/d2chub/internal/models"
)

// RequiredFields lists every top-level key a content file must declare, in
// the order they are checked.
var RequiredFields = []string{
	"title", "description", "domain", "tech", "intent", "category",
	"tags", "updated", "design_intent", "react_patterns", "tailwind_tokens",
	"next_features", "ts_types", "ai_prompt", "links",
}

// SequenceFields must hold ordered lists, even when empty.
var SequenceFields = []string{
	"tech", "intent", "tags", "react_patterns", "next_features", "ts_types", "links",
}

// DesignIntentFields must be present inside design_intent.
var DesignIntentFields = []string{"goal", "constraints", "variations"}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidationError reports why a file's frontmatter was rejected.
type ValidationError struct {
	File   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s in %s", e.Reason, e.File)
	}
	return fmt.Sprintf("%s: %s in %s", e.Field, e.Reason, e.File)
}

// Is makes every ValidationError match apperr.ErrInvalidContent.
func (e *ValidationError) Is(target error) bool {
	return target == apperr.ErrInvalidContent
}

// Result is the outcome of validating one file: either a typed record or the
// reason it was rejected, never both.
type Result struct {
	Frontmatter models.ContentFrontmatter
	Err         *ValidationError
}

// OK reports whether validation succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Validate checks raw against the contract and returns the typed record.
func Validate(raw map[string]any, file string) (models.ContentFrontmatter, error) {
	res := Check(raw, file)
	if !res.OK() {
		return models.ContentFrontmatter{}, res.Err
	}
	return res.Frontmatter, nil
}

// Check runs every rule in order and stops at the first violation.
func Check(raw map[string]any, file string) Result {
	fail := func(field, reason string) Result {
		return Result{Err: &ValidationError{File: file, Field: field, Reason: reason}}
	}

	for _, field := range RequiredFields {
		if _, ok := raw[field]; !ok {
			return fail(field, "missing required field")
		}
	}

	if err := validation.Validate(raw["updated"],
		validation.Required,
		validation.Match(dateRe),
	); err != nil {
		return fail("updated", fmt.Sprintf("invalid date %v, expected YYYY-MM-DD", raw["updated"]))
	}

	if err := validation.Validate(raw["domain"],
		validation.Required,
		validation.In(domainValues()...),
	); err != nil {
		return fail("domain", fmt.Sprintf("invalid domain %q", fmt.Sprint(raw["domain"])))
	}

	for _, field := range SequenceFields {
		if err := validation.Validate(raw[field], validation.By(sequence)); err != nil {
			return fail(field, "must be a list")
		}
	}

	if err := validation.Validate(raw["tailwind_tokens"], validation.By(mappingOrSequence)); err != nil {
		return fail("tailwind_tokens", "must be a mapping or a list")
	}

	if res, ok := checkDesignIntent(raw["design_intent"], fail); !ok {
		return res
	}

	fm, err := decode(raw)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fail(typeErr.Field, fmt.Sprintf("must be %s, got %s", typeErr.Type, typeErr.Value))
		}
		return fail("", err.Error())
	}
	return Result{Frontmatter: fm}
}

func checkDesignIntent(v any, fail func(field, reason string) Result) (Result, bool) {
	if v == nil || reflect.ValueOf(v).Kind() != reflect.Map {
		return fail("design_intent", "must be an object"), false
	}
	keys := make([]*validation.KeyRules, 0, len(DesignIntentFields))
	for _, k := range DesignIntentFields {
		keys = append(keys, validation.Key(k))
	}
	err := validation.Validate(v, validation.Map(keys...).AllowExtraKeys())
	if err == nil {
		return Result{}, true
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		for _, k := range DesignIntentFields {
			if _, missing := errs[k]; missing {
				return fail("design_intent."+k, "missing required field"), false
			}
		}
	}
	return fail("design_intent", err.Error()), false
}

func domainValues() []any {
	out := make([]any, len(models.Domains))
	for i, d := range models.Domains {
		out[i] = string(d)
	}
	return out
}

func sequence(v any) error {
	if v == nil || reflect.ValueOf(v).Kind() != reflect.Slice {
		return errors.New("must be a list")
	}
	return nil
}

func mappingOrSequence(v any) error {
	if v == nil {
		return errors.New("must be a mapping or a list")
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice:
		return nil
	default:
		return errors.New("must be a mapping or a list")
	}
}

var declared = func() map[string]struct{} {
	m := make(map[string]struct{}, len(RequiredFields))
	for _, f := range RequiredFields {
		m[f] = struct{}{}
	}
	return m
}()

// decode converts the checked mapping into the typed record. Only declared
// keys are decoded; every other key, including one named "extra", is kept
// verbatim in Extra.
func decode(raw map[string]any) (models.ContentFrontmatter, error) {
	var fm models.ContentFrontmatter
	known := make(map[string]any, len(RequiredFields))
	for k, v := range raw {
		if _, ok := declared[k]; ok {
			known[k] = v
			continue
		}
		if fm.Extra == nil {
			fm.Extra = make(map[string]any)
		}
		fm.Extra[k] = v
	}
	data, err := json.Marshal(known)
	if err != nil {
		return fm, err
	}
	if err := json.Unmarshal(data, &fm); err != nil {
		return fm, err
	}
	return fm, nil
}
