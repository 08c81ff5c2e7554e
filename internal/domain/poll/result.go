package poll

import "github.com/hata-go/hata/internal/domain/field"

// Result is the vote count of one answer.
type Result struct {
	AnswerID int
	Count    int
	MeVoted  bool
}

// NewResult creates a poll result.
func NewResult(answerID, count int, meVoted bool) *Result {
	return &Result{AnswerID: answerID, Count: count, MeVoted: meVoted}
}

// ResultFromData parses an answer count.
func ResultFromData(data field.Data) (*Result, error) {
	return &Result{
		AnswerID: parseResultAnswerID(data),
		Count:    parseResultCount(data),
		MeVoted:  parseMeVoted(data),
	}, nil
}

// ToData serializes the result.
func (r *Result) ToData(defaults, includeInternals bool) field.Data {
	data := field.Data{}
	putResultAnswerID(r.AnswerID, data, true)
	putResultCount(r.Count, data, defaults)
	putMeVoted(r.MeVoted, data, defaults)
	return data
}

// Copy returns a copy of the result.
func (r *Result) Copy() *Result {
	c := *r
	return &c
}

// Equal reports whether two results hold the same values.
func (r *Result) Equal(other *Result) bool {
	if r == nil || other == nil {
		return r == other
	}
	return *r == *other
}

// Hash returns the result hash.
func (r *Result) Hash() uint64 {
	return field.NewHasher().Int(r.AnswerID).Int(r.Count).Bool(r.MeVoted).Sum()
}

// String returns the result representation.
func (r *Result) String() string {
	return field.NewRepr("PollResult").
		Field("answer_id", r.AnswerID).
		Field("count", r.Count).
		FieldIf(r.MeVoted, "me_voted", true).
		String()
}
