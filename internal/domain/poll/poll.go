// Package poll models message polls.
package poll

import (
	"fmt"
	"slices"
	"time"

	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/shared"
)

// Poll is a message poll.
type Poll struct {
	AllowMultiselect bool
	Answers          []*Answer
	Duration         int
	ExpiresAt        time.Time
	Finalized        bool
	Layout           Layout
	Question         *Question
	Results          []*Result
}

// Option configures a Poll.
type Option func(*Poll) error

// WithQuestion sets the question.
func WithQuestion(question *Question) Option {
	return func(p *Poll) error {
		if question == nil {
			return &field.ValidationError{Field: "question", Reason: "is required", Kind: shared.ErrInvalidInput}
		}
		p.Question = question
		return nil
	}
}

// WithAnswers replaces the answers.
func WithAnswers(answers ...*Answer) Option {
	return func(p *Poll) error {
		if len(answers) > AnswersMax {
			return shared.WrapError("poll", "WithAnswers", shared.ErrValueOutOfRange,
				fmt.Sprintf("got %d answers", len(answers)), shared.ErrPollTooManyAnswers)
		}
		for _, answer := range answers {
			if answer == nil {
				return &field.ValidationError{Field: "answers", Reason: "cannot contain nil", Kind: shared.ErrInvalidInput}
			}
		}
		p.Answers = slices.Clone(answers)
		return nil
	}
}

// WithAllowMultiselect sets whether a user may pick more than one answer.
func WithAllowMultiselect(allow bool) Option {
	return func(p *Poll) error {
		p.AllowMultiselect = allow
		return nil
	}
}

// WithDuration sets how many hours the poll stays open.
func WithDuration(hours int) Option {
	return func(p *Poll) error {
		hours, err := validateDuration(hours)
		if err != nil {
			return err
		}
		p.Duration = hours
		return nil
	}
}

// WithLayout sets the layout type.
func WithLayout(layout Layout) Option {
	return func(p *Poll) error {
		layout, err := validateLayout(layout)
		if err != nil {
			return err
		}
		p.Layout = layout
		return nil
	}
}

// New creates a poll open for the default duration with the default layout.
func New(opts ...Option) (*Poll, error) {
	p := &Poll{Duration: DurationHoursDefault, Layout: LayoutDefault}
	if err := p.apply(opts); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Poll) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return err
		}
	}
	return nil
}

// FromData parses a poll.
func FromData(data field.Data) (*Poll, error) {
	question, err := parseQuestion(data)
	if err != nil {
		return nil, fmt.Errorf("parse poll question: %w", err)
	}
	answers, err := parseAnswers(data)
	if err != nil {
		return nil, fmt.Errorf("parse poll answers: %w", err)
	}

	p := &Poll{
		AllowMultiselect: parseAllowMultiselect(data),
		Answers:          answers,
		Duration:         parseDuration(data),
		ExpiresAt:        parseExpiresAt(data),
		Layout:           parseLayout(data),
		Question:         question,
	}

	if results, ok := field.Object(data["results"]); ok {
		p.Finalized = parseFinalized(results)
		if p.Results, err = parseAnswerCounts(results); err != nil {
			return nil, fmt.Errorf("parse poll results: %w", err)
		}
	}
	return p, nil
}

// ToData serializes the poll. Expiry and results are set by Discord and
// only written when includeInternals is set.
func (p *Poll) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putAllowMultiselect(p.AllowMultiselect, data, defaults)
	putAnswers(p.Answers, data, defaults, includeInternals)
	putDuration(p.Duration, data, defaults)
	putLayout(p.Layout, data, defaults)
	putQuestion(p.Question, data, defaults, includeInternals)
	if includeInternals {
		putExpiresAt(p.ExpiresAt, data, defaults)
		if defaults || p.Finalized || len(p.Results) > 0 {
			results := field.Data{}
			putFinalized(p.Finalized, results, defaults)
			putAnswerCounts(p.Results, results, defaults, includeInternals)
			data["results"] = results
		}
	}
	return data
}

// Validate checks the fields Discord requires when creating a poll.
func (p *Poll) Validate() error {
	if p.Question == nil {
		return &field.ValidationError{Field: "question", Reason: "is required", Kind: shared.ErrInvalidInput}
	}
	if len(p.Answers) == 0 {
		return &field.ValidationError{Field: "answers", Reason: "at least one answer is required", Kind: shared.ErrInvalidInput}
	}
	if len(p.Answers) > AnswersMax {
		return shared.ErrPollTooManyAnswers
	}
	return nil
}

// Answer returns the answer with the given id, or nil.
func (p *Poll) Answer(answerID int) *Answer {
	for _, answer := range p.Answers {
		if answer.ID == answerID {
			return answer
		}
	}
	return nil
}

// Result returns the result of the given answer, or nil when nobody voted
// for it yet.
func (p *Poll) Result(answerID int) *Result {
	for _, result := range p.Results {
		if result.AnswerID == answerID {
			return result
		}
	}
	return nil
}

// TotalVotes returns the sum of all answer counts.
func (p *Poll) TotalVotes() int {
	total := 0
	for _, result := range p.Results {
		total += result.Count
	}
	return total
}

// Expired reports whether the poll closed before now.
func (p *Poll) Expired(now time.Time) bool {
	return p.Finalized || (!p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt))
}

// Copy returns a deep copy of the poll.
func (p *Poll) Copy() *Poll {
	c := *p
	if p.Question != nil {
		c.Question = p.Question.Copy()
	}
	if p.Answers != nil {
		c.Answers = make([]*Answer, len(p.Answers))
		for i, answer := range p.Answers {
			c.Answers[i] = answer.Copy()
		}
	}
	if p.Results != nil {
		c.Results = make([]*Result, len(p.Results))
		for i, result := range p.Results {
			c.Results[i] = result.Copy()
		}
	}
	return &c
}

// CopyWith copies the poll and applies the given options.
func (p *Poll) CopyWith(opts ...Option) (*Poll, error) {
	c := p.Copy()
	if err := c.apply(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Equal reports whether two polls hold the same values.
func (p *Poll) Equal(other *Poll) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.AllowMultiselect == other.AllowMultiselect &&
		p.Duration == other.Duration &&
		p.ExpiresAt.Equal(other.ExpiresAt) &&
		p.Finalized == other.Finalized &&
		p.Layout == other.Layout &&
		p.Question.Equal(other.Question) &&
		slices.EqualFunc(p.Answers, other.Answers, (*Answer).Equal) &&
		slices.EqualFunc(p.Results, other.Results, (*Result).Equal)
}

// Hash returns the poll hash.
func (p *Poll) Hash() uint64 {
	h := field.NewHasher().
		Bool(p.AllowMultiselect).
		Int(p.Duration).
		Time(p.ExpiresAt).
		Bool(p.Finalized).
		Int(p.Layout.Value())
	if p.Question != nil {
		h.Uint64(p.Question.Hash())
	}
	for _, answer := range p.Answers {
		h.Uint64(answer.Hash())
	}
	for _, result := range p.Results {
		h.Uint64(result.Hash())
	}
	return h.Sum()
}

// String returns the poll representation.
func (p *Poll) String() string {
	r := field.NewRepr("Poll")
	if p.Question != nil {
		r.Field("question", p.Question.Text)
	}
	return r.Field("answers", len(p.Answers)).
		FieldIf(p.AllowMultiselect, "allow_multiselect", true).
		FieldIf(p.Finalized, "finalized", true).
		String()
}
