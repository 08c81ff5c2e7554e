package embed

import (
	"unicode/utf8"

	"github.com/hata-go/hata/internal/domain/field"
)

// Footer is the footer block of an embed.
type Footer struct {
	IconURL      string
	ProxyIconURL string
	Text         string
}

// FooterOption configures a Footer.
type FooterOption func(*Footer) error

// WithFooterText sets the footer text.
func WithFooterText(text string) FooterOption {
	return func(f *Footer) error {
		text, err := validateFooterText(text)
		if err != nil {
			return err
		}
		f.Text = text
		return nil
	}
}

// WithFooterIconURL sets the footer icon url.
func WithFooterIconURL(iconURL string) FooterOption {
	return func(f *Footer) error {
		iconURL, err := validateIconURL(iconURL)
		if err != nil {
			return err
		}
		f.IconURL = iconURL
		return nil
	}
}

// NewFooter creates an embed footer.
func NewFooter(opts ...FooterOption) (*Footer, error) {
	return (&Footer{}).CopyWith(opts...)
}

// FooterFromData parses an embed footer.
func FooterFromData(data field.Data) (*Footer, error) {
	return &Footer{
		IconURL:      parseIconURL(data),
		ProxyIconURL: parseProxyIconURL(data),
		Text:         parseFooterText(data),
	}, nil
}

// ToData serializes the footer.
func (f *Footer) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putIconURL(f.IconURL, data, defaults)
	putFooterText(f.Text, data, defaults)
	if includeInternals {
		putProxyIconURL(f.ProxyIconURL, data, defaults)
	}
	return data
}

// Len returns the amount of visible text.
func (f *Footer) Len() int {
	if f == nil {
		return 0
	}
	return utf8.RuneCountInString(f.Text)
}

// Copy returns a copy of the footer.
func (f *Footer) Copy() *Footer {
	c := *f
	return &c
}

// CopyWith copies the footer and applies the given options.
func (f *Footer) CopyWith(opts ...FooterOption) (*Footer, error) {
	c := f.Copy()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Equal reports whether two footers hold the same values.
func (f *Footer) Equal(other *Footer) bool {
	if f == nil || other == nil {
		return f == other
	}
	return *f == *other
}

// Hash returns the footer hash.
func (f *Footer) Hash() uint64 {
	return field.NewHasher().
		String(f.IconURL).
		String(f.ProxyIconURL).
		String(f.Text).
		Sum()
}

// String returns the footer representation.
func (f *Footer) String() string {
	return field.NewRepr("EmbedFooter").
		Field("text", f.Text).
		String()
}
