package embed

import (
	"unicode/utf8"

	"github.com/hata-go/hata/internal/domain/field"
)

// Author is the author block of an embed.
type Author struct {
	IconURL      string
	Name         string
	ProxyIconURL string
	URL          string
}

// AuthorOption configures an Author.
type AuthorOption func(*Author) error

// WithAuthorName sets the author name.
func WithAuthorName(name string) AuthorOption {
	return func(a *Author) error {
		name, err := validateAuthorName(name)
		if err != nil {
			return err
		}
		a.Name = name
		return nil
	}
}

// WithAuthorIconURL sets the author icon url.
func WithAuthorIconURL(iconURL string) AuthorOption {
	return func(a *Author) error {
		iconURL, err := validateIconURL(iconURL)
		if err != nil {
			return err
		}
		a.IconURL = iconURL
		return nil
	}
}

// WithAuthorURL sets the url the author name links to.
func WithAuthorURL(u string) AuthorOption {
	return func(a *Author) error {
		u, err := validateURL(u)
		if err != nil {
			return err
		}
		a.URL = u
		return nil
	}
}

// NewAuthor creates an embed author.
func NewAuthor(opts ...AuthorOption) (*Author, error) {
	return (&Author{}).CopyWith(opts...)
}

// AuthorFromData parses an embed author.
func AuthorFromData(data field.Data) (*Author, error) {
	return &Author{
		IconURL:      parseIconURL(data),
		Name:         parseName(data),
		ProxyIconURL: parseProxyIconURL(data),
		URL:          parseURL(data),
	}, nil
}

// ToData serializes the author. The proxy url is set by Discord and only
// written when includeInternals is set.
func (a *Author) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putIconURL(a.IconURL, data, defaults)
	putName(a.Name, data, defaults)
	putURL(a.URL, data, defaults)
	if includeInternals {
		putProxyIconURL(a.ProxyIconURL, data, defaults)
	}
	return data
}

// Len returns the amount of visible text.
func (a *Author) Len() int {
	if a == nil {
		return 0
	}
	return utf8.RuneCountInString(a.Name)
}

// Copy returns a copy of the author.
func (a *Author) Copy() *Author {
	c := *a
	return &c
}

// CopyWith copies the author and applies the given options.
func (a *Author) CopyWith(opts ...AuthorOption) (*Author, error) {
	c := a.Copy()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Equal reports whether two authors hold the same values.
func (a *Author) Equal(other *Author) bool {
	if a == nil || other == nil {
		return a == other
	}
	return *a == *other
}

// Hash returns the author hash.
func (a *Author) Hash() uint64 {
	return field.NewHasher().
		String(a.IconURL).
		String(a.Name).
		String(a.ProxyIconURL).
		String(a.URL).
		Sum()
}

// String returns the author representation.
func (a *Author) String() string {
	return field.NewRepr("EmbedAuthor").
		FieldIf(a.Name != "", "name", a.Name).
		FieldIf(a.URL != "", "url", a.URL).
		String()
}
