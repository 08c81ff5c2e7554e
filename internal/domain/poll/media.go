package poll

import (
	"fmt"

	"github.com/hata-go/hata/internal/domain/emoji"
	"github.com/hata-go/hata/internal/domain/field"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION
// ══════════════════════════════════════════════════════════════════════════════

// Question is the prompt of a poll.
type Question struct {
	Emoji *emoji.Emoji
	Text  string
}

// NewQuestion creates a poll question.
func NewQuestion(text string, e *emoji.Emoji) (*Question, error) {
	text, err := validateQuestionText(text)
	if err != nil {
		return nil, err
	}
	return &Question{Emoji: e, Text: text}, nil
}

// QuestionFromData parses a poll question.
func QuestionFromData(data field.Data) (*Question, error) {
	e, err := parseEmoji(data)
	if err != nil {
		return nil, fmt.Errorf("parse question emoji: %w", err)
	}
	return &Question{Emoji: e, Text: parseText(data)}, nil
}

// ToData serializes the question.
func (q *Question) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putEmoji(q.Emoji, data, defaults, includeInternals)
	putText(q.Text, data, defaults)
	return data
}

// Copy returns a copy of the question.
func (q *Question) Copy() *Question {
	c := *q
	if q.Emoji != nil {
		c.Emoji = q.Emoji.Copy()
	}
	return &c
}

// CopyWith copies the question with new text. Empty text keeps the current
// one.
func (q *Question) CopyWith(text string) (*Question, error) {
	if text == "" {
		text = q.Text
	}
	return NewQuestion(text, q.Emoji)
}

// Equal reports whether two questions hold the same values.
func (q *Question) Equal(other *Question) bool {
	if q == nil || other == nil {
		return q == other
	}
	return q.Text == other.Text && q.Emoji.Equal(other.Emoji)
}

// Hash returns the question hash.
func (q *Question) Hash() uint64 {
	h := field.NewHasher().String(q.Text)
	if q.Emoji != nil {
		h.Uint64(q.Emoji.Hash())
	}
	return h.Sum()
}

// String returns the question representation.
func (q *Question) String() string {
	return field.NewRepr("PollQuestion").
		Field("text", q.Text).
		FieldIf(q.Emoji != nil, "emoji", q.Emoji).
		String()
}

// ══════════════════════════════════════════════════════════════════════════════
// ANSWER
// ══════════════════════════════════════════════════════════════════════════════

// Answer is one option of a poll. Discord assigns the id.
type Answer struct {
	Emoji *emoji.Emoji
	ID    int
	Text  string
}

// NewAnswer creates a poll answer.
func NewAnswer(text string, e *emoji.Emoji) (*Answer, error) {
	text, err := validateAnswerText(text)
	if err != nil {
		return nil, err
	}
	return &Answer{Emoji: e, Text: text}, nil
}

// AnswerFromData parses a poll answer; the text and emoji are nested under
// "poll_media".
func AnswerFromData(data field.Data) (*Answer, error) {
	media, _ := field.Object(data["poll_media"])
	if media == nil {
		media = field.Data{}
	}
	e, err := parseEmoji(media)
	if err != nil {
		return nil, fmt.Errorf("parse answer emoji: %w", err)
	}
	return &Answer{
		Emoji: e,
		ID:    parseAnswerID(data),
		Text:  parseText(media),
	}, nil
}

// ToData serializes the answer. The id is only written when includeInternals
// is set.
func (a *Answer) ToData(defaults, includeInternals bool) field.Data {
	media := field.Data{}
	putEmoji(a.Emoji, media, defaults, includeInternals)
	putText(a.Text, media, defaults)

	data := field.Data{"poll_media": media}
	if includeInternals {
		putAnswerID(a.ID, data, defaults)
	}
	return data
}

// Copy returns a copy of the answer.
func (a *Answer) Copy() *Answer {
	c := *a
	if a.Emoji != nil {
		c.Emoji = a.Emoji.Copy()
	}
	return &c
}

// CopyWith copies the answer with new text. Empty text keeps the current
// one.
func (a *Answer) CopyWith(text string) (*Answer, error) {
	if text == "" {
		text = a.Text
	}
	c, err := NewAnswer(text, a.Emoji)
	if err != nil {
		return nil, err
	}
	c.ID = a.ID
	return c, nil
}

// Equal reports whether two answers hold the same values.
func (a *Answer) Equal(other *Answer) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.ID == other.ID && a.Text == other.Text && a.Emoji.Equal(other.Emoji)
}

// Hash returns the answer hash.
func (a *Answer) Hash() uint64 {
	h := field.NewHasher().Int(a.ID).String(a.Text)
	if a.Emoji != nil {
		h.Uint64(a.Emoji.Hash())
	}
	return h.Sum()
}

// String returns the answer representation.
func (a *Answer) String() string {
	return field.NewRepr("PollAnswer").
		FieldIf(a.ID != 0, "id", a.ID).
		Field("text", a.Text).
		FieldIf(a.Emoji != nil, "emoji", a.Emoji).
		String()
}
