package session

import (
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Record is a typed business record with a closed set of fields
type Record[F ~string] interface {
	Set(field F, value string)
	IsEmpty(field F) bool
}

// Schema is the field configuration of a form. Required fields are listed
// in the order they should be collected.
type Schema[F ~string] struct {
	Required []F
	Optional []F

	// Parse resolves a caller supplied name to a field; it must return
	// model.ErrUnknownField for names outside the record
	Parse func(string) (F, error)
}

// Form tracks field updates and completeness of a Record
type Form[F ~string, R Record[F]] struct {
	schema Schema[F]
	record R
	fresh  func() R
}

// NewForm creates a form over the record returned by fresh. fresh is also
// used by Reset.
func NewForm[F ~string, R Record[F]](schema Schema[F], fresh func() R) *Form[F, R] {
	return &Form[F, R]{
		schema: schema,
		record: fresh(),
		fresh:  fresh,
	}
}

// Update sets a field and returns the required fields that are still empty.
// An unknown field is rejected and the record is left untouched.
func (f *Form[F, R]) Update(name, value string) ([]F, error) {
	field, err := f.schema.Parse(name)
	if err != nil {
		return nil, err
	}
	if !f.known(field) {
		return nil, goerr.Wrap(model.ErrUnknownField, "field is not part of the schema", goerr.V("field", name))
	}

	f.record.Set(field, value)
	return f.Missing(), nil
}

func (f *Form[F, R]) known(field F) bool {
	for _, k := range f.schema.Required {
		if k == field {
			return true
		}
	}
	for _, k := range f.schema.Optional {
		if k == field {
			return true
		}
	}
	return false
}

// Missing returns the empty required fields in schema order
func (f *Form[F, R]) Missing() []F {
	missing := make([]F, 0, len(f.schema.Required))
	for _, k := range f.schema.Required {
		if f.record.IsEmpty(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// Complete reports whether every required field has a value
func (f *Form[F, R]) Complete() bool {
	return len(f.Missing()) == 0
}

// Record returns the underlying record
func (f *Form[F, R]) Record() R {
	return f.record
}

// Reset replaces the record with a fresh one
func (f *Form[F, R]) Reset() {
	f.record = f.fresh()
}
