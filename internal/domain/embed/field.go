package embed

import (
	"unicode/utf8"

	"github.com/hata-go/hata/internal/domain/field"
)

// Field is a name and value pair shown in an embed.
type Field struct {
	Inline bool
	Name   string
	Value  string
}

// NewField creates an embed field.
func NewField(name, value string, inline bool) (*Field, error) {
	name, err := validateFieldName(name)
	if err != nil {
		return nil, err
	}
	value, err = validateFieldValue(value)
	if err != nil {
		return nil, err
	}
	return &Field{Inline: inline, Name: name, Value: value}, nil
}

// FieldFromData parses an embed field.
func FieldFromData(data field.Data) (*Field, error) {
	return &Field{
		Inline: parseFieldInline(data),
		Name:   parseFieldName(data),
		Value:  parseFieldValue(data),
	}, nil
}

// ToData serializes the field.
func (f *Field) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putFieldInline(f.Inline, data, defaults)
	putFieldName(f.Name, data, defaults)
	putFieldValue(f.Value, data, defaults)
	return data
}

// Len returns the amount of visible text.
func (f *Field) Len() int {
	return utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
}

// Copy returns a copy of the field.
func (f *Field) Copy() *Field {
	c := *f
	return &c
}

// CopyWith copies the field with new values. Empty name or value keep the
// current ones.
func (f *Field) CopyWith(name, value string, inline bool) (*Field, error) {
	if name == "" {
		name = f.Name
	}
	if value == "" {
		value = f.Value
	}
	return NewField(name, value, inline)
}

// Equal reports whether two fields hold the same values.
func (f *Field) Equal(other *Field) bool {
	if f == nil || other == nil {
		return f == other
	}
	return *f == *other
}

// Hash returns the field hash.
func (f *Field) Hash() uint64 {
	return field.NewHasher().Bool(f.Inline).String(f.Name).String(f.Value).Sum()
}

// String returns the field representation.
func (f *Field) String() string {
	return field.NewRepr("EmbedField").
		Field("name", f.Name).
		Field("value", f.Value).
		FieldIf(f.Inline, "inline", true).
		String()
}
