package poll

import (
	"github.com/hata-go/hata/internal/domain/emoji"
	"github.com/hata-go/hata/internal/domain/field"
	"github.com/hata-go/hata/internal/domain/preinstanced"
)

// Layout is the poll layout type.
type Layout = *preinstanced.Instance[int]

// Layouts is the PollLayout registry.
var Layouts = preinstanced.NewRegistry[int]("PollLayout")

// Poll layouts.
var (
	LayoutNone    = Layouts.Register(0, "none")
	LayoutDefault = Layouts.Register(1, "default")
)

// Limits Discord enforces on polls.
const (
	AnswersMax           = 10
	AnswerTextLengthMax  = 55
	QuestionLengthMax    = 300
	DurationHoursMin     = 1
	DurationHoursMax     = 768
	DurationHoursDefault = 24
)

// ══════════════════════════════════════════════════════════════════════════════
// MEDIA FIELDS
// ══════════════════════════════════════════════════════════════════════════════

var (
	parseText = field.ForceStringParser("text")
	putText   = field.ForceStringPutter("text")

	validateQuestionText = field.ForceStringValidator("text", 1, QuestionLengthMax)
	validateAnswerText   = field.ForceStringValidator("text", 1, AnswerTextLengthMax)

	parseEmoji = field.NestedParser("emoji", emoji.FromData)
	putEmoji   = field.NestedPutter[*emoji.Emoji]("emoji", false)

	parseAnswerID = field.IntParser("answer_id", 0)
	putAnswerID   = field.NullableIntPutter("answer_id")
)

// ══════════════════════════════════════════════════════════════════════════════
// RESULT FIELDS
// ══════════════════════════════════════════════════════════════════════════════

var (
	parseResultAnswerID = field.IntParser("id", 0)
	putResultAnswerID   = field.IntPutter("id", 0)

	parseResultCount = field.IntParser("count", 0)
	putResultCount   = field.IntPutter("count", 0)

	parseMeVoted = field.BoolParser("me_voted", false)
	putMeVoted   = field.BoolPutter("me_voted", false)

	parseFinalized = field.BoolParser("is_finalized", false)
	putFinalized   = field.BoolPutter("is_finalized", false)

	parseAnswerCounts = field.NestedArrayParser("answer_counts", ResultFromData)
	putAnswerCounts   = field.NestedArrayPutter[*Result]("answer_counts")
)

// ══════════════════════════════════════════════════════════════════════════════
// POLL FIELDS
// ══════════════════════════════════════════════════════════════════════════════

var (
	parseQuestion = field.NestedParser("question", QuestionFromData)
	putQuestion   = field.NestedPutter[*Question]("question", false)

	parseAnswers = field.NestedArrayParser("answers", AnswerFromData)
	putAnswers   = field.NestedArrayPutter[*Answer]("answers")

	parseAllowMultiselect = field.BoolParser("allow_multiselect", false)
	putAllowMultiselect   = field.BoolPutter("allow_multiselect", false)

	parseDuration    = field.IntParser("duration", DurationHoursDefault)
	putDuration      = field.IntPutter("duration", DurationHoursDefault)
	validateDuration = field.IntConditionalValidator("duration", DurationHoursMin, DurationHoursMax)

	parseExpiresAt = field.NullableDateParser("expiry")
	putExpiresAt   = field.NullableDatePutter("expiry")

	parseLayout    = field.PreinstancedParser("layout_type", Layouts, LayoutDefault)
	putLayout      = field.PreinstancedPutter("layout_type", LayoutDefault)
	validateLayout = field.PreinstancedValidator("layout", Layouts)
)
