package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// FieldErrors maps a JSON field name to the reason it was rejected.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// ResumePatch is a partial update. A nil field was not sent by the caller and
// must be left untouched; a non-nil field is written as is, even when empty.
type ResumePatch struct {
	Title    *string
	Template *string
	Data     *ResumeDocument
}

// Patchable resume fields. Anything else in an update body is dropped.
const (
	PatchTitle    = "title"
	PatchTemplate = "template"
	PatchData     = "data"
)

// UnmarshalJSON decodes a patch from a JSON object keyed by field name.
// Unknown keys are ignored; null or mistyped values yield FieldErrors.
func (p *ResumePatch) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return FieldErrors{"body": "must be a JSON object"}
	}

	var patch ResumePatch
	errs := FieldErrors{}

	if v, ok := raw[PatchTitle]; ok {
		patch.Title = new(string)
		decodeField(PatchTitle, v, patch.Title, errs)
	}
	if v, ok := raw[PatchTemplate]; ok {
		patch.Template = new(string)
		decodeField(PatchTemplate, v, patch.Template, errs)
	}
	if v, ok := raw[PatchData]; ok {
		patch.Data = &ResumeDocument{}
		decodeField(PatchData, v, patch.Data, errs)
	}

	if len(errs) > 0 {
		return errs
	}

	*p = patch
	return nil
}

// Fields lists the names of the fields present in the patch.
func (p ResumePatch) Fields() []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, PatchTitle)
	}
	if p.Template != nil {
		fields = append(fields, PatchTemplate)
	}
	if p.Data != nil {
		fields = append(fields, PatchData)
	}
	return fields
}

// Apply writes the present fields onto r.
func (p ResumePatch) Apply(r *Resume) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Template != nil {
		r.Template = *p.Template
	}
	if p.Data != nil {
		r.Data = p.Data.Clone()
	}
}

func decodeField(name string, raw json.RawMessage, dst any, errs FieldErrors) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		errs[name] = "must not be null"
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		errs[name] = describeDecodeError(err)
	}
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field != "" {
			return fmt.Sprintf("%s must be %s", typeErr.Field, JSONTypeName(typeErr.Type))
		}
		return "must be " + JSONTypeName(typeErr.Type)
	}
	return "malformed value"
}

// JSONTypeName names the JSON value expected for a Go type, with its article.
func JSONTypeName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a valid value"
	}
}
