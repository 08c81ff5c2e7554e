// Package embed models message embeds and their parts.
package embed

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
)

// Embed is a rich message embed.
type Embed struct {
	Author      *Author
	Color       int
	Description string
	Fields      []*Field
	Footer      *Footer
	Image       *Image
	Provider    *Provider
	Thumbnail   *Image
	Timestamp   time.Time
	Title       string
	Type        Type
	URL         string
	Video       *Image
}

// Option configures an Embed.
type Option func(*Embed) error

// WithTitle sets the title.
func WithTitle(title string) Option {
	return func(e *Embed) error {
		title, err := validateTitle(title)
		if err != nil {
			return err
		}
		e.Title = title
		return nil
	}
}

// WithDescription sets the description.
func WithDescription(description string) Option {
	return func(e *Embed) error {
		description, err := validateDescription(description)
		if err != nil {
			return err
		}
		e.Description = description
		return nil
	}
}

// WithURL sets the url the title links to.
func WithURL(u string) Option {
	return func(e *Embed) error {
		u, err := validateURL(u)
		if err != nil {
			return err
		}
		e.URL = u
		return nil
	}
}

// WithType sets the embed type.
func WithType(t Type) Option {
	return func(e *Embed) error {
		t, err := validateType(t)
		if err != nil {
			return err
		}
		e.Type = t
		return nil
	}
}

// WithColor sets the side color as 0xRRGGBB.
func WithColor(color int) Option {
	return func(e *Embed) error {
		color, err := validateColor(color)
		if err != nil {
			return err
		}
		e.Color = color
		return nil
	}
}

// WithTimestamp sets the timestamp shown in the footer.
func WithTimestamp(timestamp time.Time) Option {
	return func(e *Embed) error {
		e.Timestamp = timestamp.UTC()
		return nil
	}
}

// WithAuthor sets the author block.
func WithAuthor(author *Author) Option {
	return func(e *Embed) error {
		e.Author = author
		return nil
	}
}

// WithFooter sets the footer block.
func WithFooter(footer *Footer) Option {
	return func(e *Embed) error {
		e.Footer = footer
		return nil
	}
}

// WithImage sets the image.
func WithImage(image *Image) Option {
	return func(e *Embed) error {
		e.Image = image
		return nil
	}
}

// WithThumbnail sets the thumbnail.
func WithThumbnail(thumbnail *Image) Option {
	return func(e *Embed) error {
		e.Thumbnail = thumbnail
		return nil
	}
}

// WithFields replaces the fields.
func WithFields(fields ...*Field) Option {
	return func(e *Embed) error {
		if len(fields) > FieldsMax {
			return &field.ValidationError{
				Field:  "fields",
				Reason: fmt.Sprintf("at most %d fields allowed, got %d", FieldsMax, len(fields)),
				Kind:   shared.ErrValueOutOfRange,
			}
		}
		for _, f := range fields {
			if f == nil {
				return &field.ValidationError{Field: "fields", Reason: "cannot contain nil", Kind: shared.ErrInvalidInput}
			}
		}
		e.Fields = slices.Clone(fields)
		return nil
	}
}

// New creates an embed of type rich.
func New(opts ...Option) (*Embed, error) {
	e := &Embed{Type: TypeRich}
	if err := e.apply(opts); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Embed) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return err
		}
	}
	return nil
}

// FromData parses an embed.
func FromData(data field.Data) (*Embed, error) {
	e := &Embed{
		Color:       parseColor(data),
		Description: parseDescription(data),
		Timestamp:   parseTimestamp(data),
		Title:       parseTitle(data),
		Type:        parseType(data),
		URL:         parseURL(data),
	}

	var err error
	if e.Author, err = parseAuthor(data); err != nil {
		return nil, fmt.Errorf("parse embed author: %w", err)
	}
	if e.Fields, err = parseFields(data); err != nil {
		return nil, fmt.Errorf("parse embed fields: %w", err)
	}
	if e.Footer, err = parseFooter(data); err != nil {
		return nil, fmt.Errorf("parse embed footer: %w", err)
	}
	if e.Image, err = parseImage(data); err != nil {
		return nil, fmt.Errorf("parse embed image: %w", err)
	}
	if e.Provider, err = parseProvider(data); err != nil {
		return nil, fmt.Errorf("parse embed provider: %w", err)
	}
	if e.Thumbnail, err = parseThumbnail(data); err != nil {
		return nil, fmt.Errorf("parse embed thumbnail: %w", err)
	}
	if e.Video, err = parseVideo(data); err != nil {
		return nil, fmt.Errorf("parse embed video: %w", err)
	}
	return e, nil
}

// ToData serializes the embed. Provider and video are set by Discord and
// only written when includeInternals is set.
func (e *Embed) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putAuthor(e.Author, data, defaults, includeInternals)
	putColor(e.Color, data, defaults)
	putDescription(e.Description, data, defaults)
	putFields(e.Fields, data, defaults, includeInternals)
	putFooter(e.Footer, data, defaults, includeInternals)
	putImage(e.Image, data, defaults, includeInternals)
	putThumbnail(e.Thumbnail, data, defaults, includeInternals)
	putTimestamp(e.Timestamp, data, defaults)
	putTitle(e.Title, data, defaults)
	putType(e.Type, data, defaults)
	putURL(e.URL, data, defaults)
	if includeInternals {
		putProvider(e.Provider, data, defaults, includeInternals)
		putVideo(e.Video, data, defaults, includeInternals)
	}
	return data
}

// Len returns the amount of text Discord counts towards the total limit.
func (e *Embed) Len() int {
	length := utf8.RuneCountInString(e.Title) +
		utf8.RuneCountInString(e.Description) +
		e.Author.Len() +
		e.Footer.Len()
	for _, f := range e.Fields {
		length += f.Len()
	}
	return length
}

// Validate checks the limits that span multiple fields.
func (e *Embed) Validate() error {
	if len(e.Fields) > FieldsMax {
		return &field.ValidationError{
			Field:  "fields",
			Reason: fmt.Sprintf("at most %d fields allowed, got %d", FieldsMax, len(e.Fields)),
			Kind:   shared.ErrValueOutOfRange,
		}
	}
	if length := e.Len(); length > TotalLengthMax {
		return shared.WrapError("embed", "Validate", shared.ErrValueOutOfRange,
			fmt.Sprintf("embed text is %d characters", length), shared.ErrEmbedTooLong)
	}
	return nil
}

// AddField returns a copy of the embed with one more field.
func (e *Embed) AddField(name, value string, inline bool) (*Embed, error) {
	f, err := NewField(name, value, inline)
	if err != nil {
		return nil, err
	}
	return e.CopyWith(WithFields(append(slices.Clone(e.Fields), f)...))
}

// Copy returns a deep copy of the embed.
func (e *Embed) Copy() *Embed {
	c := *e
	if e.Author != nil {
		c.Author = e.Author.Copy()
	}
	if e.Footer != nil {
		c.Footer = e.Footer.Copy()
	}
	if e.Image != nil {
		c.Image = e.Image.Copy()
	}
	if e.Provider != nil {
		c.Provider = e.Provider.Copy()
	}
	if e.Thumbnail != nil {
		c.Thumbnail = e.Thumbnail.Copy()
	}
	if e.Video != nil {
		c.Video = e.Video.Copy()
	}
	if e.Fields != nil {
		c.Fields = make([]*Field, len(e.Fields))
		for i, f := range e.Fields {
			c.Fields[i] = f.Copy()
		}
	}
	return &c
}

// CopyWith copies the embed and applies the given options.
func (e *Embed) CopyWith(opts ...Option) (*Embed, error) {
	c := e.Copy()
	if err := c.apply(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Equal reports whether two embeds hold the same values.
func (e *Embed) Equal(other *Embed) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Color == other.Color &&
		e.Description == other.Description &&
		e.Timestamp.Equal(other.Timestamp) &&
		e.Title == other.Title &&
		e.Type == other.Type &&
		e.URL == other.URL &&
		e.Author.Equal(other.Author) &&
		e.Footer.Equal(other.Footer) &&
		e.Image.Equal(other.Image) &&
		e.Provider.Equal(other.Provider) &&
		e.Thumbnail.Equal(other.Thumbnail) &&
		e.Video.Equal(other.Video) &&
		slices.EqualFunc(e.Fields, other.Fields, (*Field).Equal)
}

// Hash returns the embed hash.
func (e *Embed) Hash() uint64 {
	h := field.NewHasher().
		Int(e.Color).
		String(e.Description).
		Time(e.Timestamp).
		String(e.Title).
		String(e.Type.Value()).
		String(e.URL)
	if e.Author != nil {
		h.Uint64(e.Author.Hash())
	}
	if e.Footer != nil {
		h.Uint64(e.Footer.Hash())
	}
	for _, image := range []*Image{e.Image, e.Thumbnail, e.Video} {
		if image != nil {
			h.Uint64(image.Hash())
		} else {
			h.Uint64(0)
		}
	}
	if e.Provider != nil {
		h.Uint64(e.Provider.Hash())
	}
	for _, f := range e.Fields {
		h.Uint64(f.Hash())
	}
	return h.Sum()
}

// String returns the embed representation.
func (e *Embed) String() string {
	return field.NewRepr("Embed").
		Field("type", e.Type.Name()).
		FieldIf(e.Title != "", "title", e.Title).
		Field("length", e.Len()).
		FieldIf(len(e.Fields) > 0, "fields", len(e.Fields)).
		String()
}
