package emoji

import (
	"fmt"
	"slices"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REACTION
// ══════════════════════════════════════════════════════════════════════════════

// Reaction identifies one kind of reaction on a message: an emoji and
// whether it is a burst reaction.
type Reaction struct {
	Emoji *Emoji
	Type  ReactionType
}

// ReactionOption configures a Reaction.
type ReactionOption func(*Reaction) error

// WithReactionEmoji sets the reacted emoji.
func WithReactionEmoji(e *Emoji) ReactionOption {
	return func(r *Reaction) error {
		if e == nil {
			return shared.NewDomainError("reaction", "WithReactionEmoji", shared.ErrInvalidInput, "emoji is required")
		}
		r.Emoji = e
		return nil
	}
}

// WithReactionType sets the reaction type.
func WithReactionType(t ReactionType) ReactionOption {
	return func(r *Reaction) error {
		t, err := validateReactionType(t)
		if err != nil {
			return err
		}
		r.Type = t
		return nil
	}
}

// NewReaction creates a reaction.
func NewReaction(opts ...ReactionOption) (*Reaction, error) {
	r := &Reaction{Type: ReactionTypeStandard}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.Emoji == nil {
		return nil, shared.NewDomainError("reaction", "New", shared.ErrInvalidInput, "emoji is required")
	}
	return r, nil
}

// ReactionFromData parses a reaction ({"emoji": ..., "type": ...}).
func ReactionFromData(data field.Data) (*Reaction, error) {
	e, err := parseReactionEmoji(data)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, shared.NewDomainError("reaction", "FromData", shared.ErrInvalidInput, "payload has no emoji")
	}
	return &Reaction{Emoji: e, Type: parseReactionType(data)}, nil
}

// ToData serializes the reaction.
func (r *Reaction) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putReactionEmoji(r.Emoji, data, defaults, includeInternals)
	putReactionType(r.Type, data, defaults)
	return data
}

// Copy returns a copy of the reaction.
func (r *Reaction) Copy() *Reaction {
	c := *r
	c.Emoji = r.Emoji.Copy()
	return &c
}

// CopyWith copies the reaction and applies the given options.
func (r *Reaction) CopyWith(opts ...ReactionOption) (*Reaction, error) {
	c := r.Copy()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Equal reports whether two reactions are the same.
func (r *Reaction) Equal(other *Reaction) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Type == other.Type && r.Emoji.Equal(other.Emoji)
}

// Hash returns the reaction hash.
func (r *Reaction) Hash() uint64 {
	return field.NewHasher().Uint64(r.Emoji.Hash()).Int(r.Type.Value()).Sum()
}

// String returns the reaction representation.
func (r *Reaction) String() string {
	return field.NewRepr("Reaction").
		Field("emoji", r.Emoji.AsEmoji()).
		Field("type", r.Type.Name()).
		String()
}

// ══════════════════════════════════════════════════════════════════════════════
// REACTION SUMMARY
// ══════════════════════════════════════════════════════════════════════════════

// ReactionSummary is the per-emoji reaction counter of a message.
type ReactionSummary struct {
	BurstColors []int
	BurstCount  int
	Count       int
	Emoji       *Emoji
	Me          bool
	MeBurst     bool
	NormalCount int
}

// NewReactionSummary creates a summary for an emoji with the given counts.
func NewReactionSummary(e *Emoji, normal, burst int) (*ReactionSummary, error) {
	if e == nil {
		return nil, shared.NewDomainError("reaction_summary", "New", shared.ErrInvalidInput, "emoji is required")
	}
	if normal < 0 || burst < 0 {
		return nil, shared.NewDomainError("reaction_summary", "New", shared.ErrValueOutOfRange, "counts cannot be negative")
	}
	return &ReactionSummary{
		BurstCount:  burst,
		Count:       normal + burst,
		Emoji:       e,
		NormalCount: normal,
	}, nil
}

// ReactionSummaryFromData parses a message reaction object.
func ReactionSummaryFromData(data field.Data) (*ReactionSummary, error) {
	e, err := parseReactionEmoji(data)
	if err != nil {
		return nil, fmt.Errorf("parse reaction emoji: %w", err)
	}
	burst, normal := parseCountDetails(data)
	return &ReactionSummary{
		BurstColors: parseBurstColors(data),
		BurstCount:  burst,
		Count:       parseCount(data),
		Emoji:       e,
		Me:          parseMe(data),
		MeBurst:     parseMeBurst(data),
		NormalCount: normal,
	}, nil
}

// ToData serializes the summary.
func (s *ReactionSummary) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putBurstColors(s.BurstColors, data, defaults)
	putCount(s.Count, data, defaults)
	putCountDetails(s.BurstCount, s.NormalCount, data, defaults)
	putReactionEmoji(s.Emoji, data, defaults, includeInternals)
	putMe(s.Me, data, defaults)
	putMeBurst(s.MeBurst, data, defaults)
	return data
}

// Reactions splits the summary into its standard and burst reactions,
// omitting the kinds nobody used.
func (s *ReactionSummary) Reactions() []*Reaction {
	var reactions []*Reaction
	if s.NormalCount > 0 {
		reactions = append(reactions, &Reaction{Emoji: s.Emoji, Type: ReactionTypeStandard})
	}
	if s.BurstCount > 0 {
		reactions = append(reactions, &Reaction{Emoji: s.Emoji, Type: ReactionTypeBurst})
	}
	return reactions
}

// Copy returns a copy of the summary.
func (s *ReactionSummary) Copy() *ReactionSummary {
	c := *s
	c.BurstColors = slices.Clone(s.BurstColors)
	if s.Emoji != nil {
		c.Emoji = s.Emoji.Copy()
	}
	return &c
}

// Equal reports whether two summaries hold the same values.
func (s *ReactionSummary) Equal(other *ReactionSummary) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.BurstCount == other.BurstCount &&
		s.Count == other.Count &&
		s.Me == other.Me &&
		s.MeBurst == other.MeBurst &&
		s.NormalCount == other.NormalCount &&
		slices.Equal(s.BurstColors, other.BurstColors) &&
		s.Emoji.Equal(other.Emoji)
}

// Hash returns the summary hash.
func (s *ReactionSummary) Hash() uint64 {
	h := field.NewHasher().
		Int(s.BurstCount).
		Int(s.Count).
		Bool(s.Me).
		Bool(s.MeBurst).
		Int(s.NormalCount)
	for _, color := range s.BurstColors {
		h.Int(color)
	}
	if s.Emoji != nil {
		h.Uint64(s.Emoji.Hash())
	}
	return h.Sum()
}

// String returns the summary representation.
func (s *ReactionSummary) String() string {
	return field.NewRepr("ReactionSummary").
		Field("emoji", s.Emoji).
		Field("count", s.Count).
		FieldIf(s.BurstCount > 0, "burst", s.BurstCount).
		String()
}
