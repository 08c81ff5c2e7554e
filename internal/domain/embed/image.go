package embed

import (
	"github.com/hata-go/hata/internal/domain/field"
)

// Image is a media block of an embed. It serves as image, thumbnail and
// video.
type Image struct {
	Height   int
	ProxyURL string
	URL      string
	Width    int
}

// NewImage creates an embed image pointing at the given url.
func NewImage(u string) (*Image, error) {
	u, err := validateURL(u)
	if err != nil {
		return nil, err
	}
	return &Image{URL: u}, nil
}

// ImageFromData parses an embed image, thumbnail or video.
func ImageFromData(data field.Data) (*Image, error) {
	return &Image{
		Height:   parseHeight(data),
		ProxyURL: parseProxyURL(data),
		URL:      parseURL(data),
		Width:    parseWidth(data),
	}, nil
}

// ToData serializes the image. Size and proxy url are set by Discord and
// only written when includeInternals is set.
func (i *Image) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putURL(i.URL, data, defaults)
	if includeInternals {
		putHeight(i.Height, data, defaults)
		putProxyURL(i.ProxyURL, data, defaults)
		putWidth(i.Width, data, defaults)
	}
	return data
}

// Copy returns a copy of the image.
func (i *Image) Copy() *Image {
	c := *i
	return &c
}

// CopyWith copies the image pointing at a new url.
func (i *Image) CopyWith(u string) (*Image, error) {
	return NewImage(u)
}

// Equal reports whether two images hold the same values.
func (i *Image) Equal(other *Image) bool {
	if i == nil || other == nil {
		return i == other
	}
	return *i == *other
}

// Hash returns the image hash.
func (i *Image) Hash() uint64 {
	return field.NewHasher().
		Int(i.Height).
		String(i.ProxyURL).
		String(i.URL).
		Int(i.Width).
		Sum()
}

// String returns the image representation.
func (i *Image) String() string {
	return field.NewRepr("EmbedImage").
		Field("url", i.URL).
		FieldIf(i.Height != 0 || i.Width != 0, "size", [2]int{i.Width, i.Height}).
		String()
}

// Provider is the site an embed was generated from. Only Discord sets it.
type Provider struct {
	Name string
	URL  string
}

// NewProvider creates an embed provider.
func NewProvider(name, u string) (*Provider, error) {
	name, err := validateProviderName(name)
	if err != nil {
		return nil, err
	}
	u, err = validateURL(u)
	if err != nil {
		return nil, err
	}
	return &Provider{Name: name, URL: u}, nil
}

// ProviderFromData parses an embed provider.
func ProviderFromData(data field.Data) (*Provider, error) {
	return &Provider{
		Name: parseName(data),
		URL:  parseURL(data),
	}, nil
}

// ToData serializes the provider.
func (p *Provider) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putName(p.Name, data, defaults)
	putURL(p.URL, data, defaults)
	return data
}

// Copy returns a copy of the provider.
func (p *Provider) Copy() *Provider {
	c := *p
	return &c
}

// CopyWith copies the provider with new values.
func (p *Provider) CopyWith(name, u string) (*Provider, error) {
	return NewProvider(name, u)
}

// Equal reports whether two providers hold the same values.
func (p *Provider) Equal(other *Provider) bool {
	if p == nil || other == nil {
		return p == other
	}
	return *p == *other
}

// Hash returns the provider hash.
func (p *Provider) Hash() uint64 {
	return field.NewHasher().String(p.Name).String(p.URL).Sum()
}

// String returns the provider representation.
func (p *Provider) String() string {
	return field.NewRepr("EmbedProvider").
		FieldIf(p.Name != "", "name", p.Name).
		FieldIf(p.URL != "", "url", p.URL).
		String()
}
