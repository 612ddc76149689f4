package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(v bool) *bool { return &v }

func TestFormatAnswerEmptyInputs(t *testing.T) {
	question := InterviewQuestion{Text: "Anything else?", OpenEnded: boolPtr(true)}

	assert.Equal(t, ANSWER_NONE_PROVIDED, formatAnswer(question, nil))
	assert.Equal(t, ANSWER_NONE_PROVIDED, formatAnswer(question, ""))
	assert.Equal(t, ANSWER_NONE_PROVIDED, formatAnswer(question, "  "))
	assert.Equal(t, ANSWER_NONE_PROVIDED, formatAnswer(question, "[]"))
}

func TestFormatAnswerStructuredSchema(t *testing.T) {
	question := InterviewQuestion{
		Text:         "List your most relevant projects",
		OpenEnded:    boolPtr(true),
		SchemaFields: `["Name","Rate"]`,
	}

	raw := `[{"customText": "{\"name\":\"Jane\",\"rate\":\"50\"}"}]`

	assert.Equal(t, "- Name: Jane, Rate: 50", formatAnswer(question, raw))
}

func TestFormatAnswerStructuredSchemaMultipleItems(t *testing.T) {
	question := InterviewQuestion{
		Text:         "List your key team members",
		OpenEnded:    boolPtr(true),
		SchemaFields: `["Name","Role"]`,
	}

	raw := `[{"customText": "{\"name\":\"Amina\",\"role\":\"CEO\"}"},{"customText": "{\"name\":\"Kwame\",\"role\":\"CTO\"}"}]`

	assert.Equal(t, "- Name: Amina, Role: CEO\n- Name: Kwame, Role: CTO", formatAnswer(question, raw))
}

func TestFormatAnswerFreeTextWithLink(t *testing.T) {
	question := InterviewQuestion{Text: "Share portfolio links", OpenEnded: boolPtr(true)}

	raw := `[{"text": "My portfolio", "link": "https://example.com"},{"customText": "Side project"}]`

	assert.Equal(t, "My portfolio (Link: https://example.com)\nSide project", formatAnswer(question, raw))
}

func TestFormatAnswerChoiceItems(t *testing.T) {
	question := InterviewQuestion{Text: "Which services does your agency offer?", OpenEnded: boolPtr(false)}

	raw := `["Branding", {"option": "PR"}, {"customText": "Media buying"}]`

	assert.Equal(t, "Branding, PR, Media buying", formatAnswer(question, raw))
}

func TestFormatAnswerPlainTextPassthrough(t *testing.T) {
	question := InterviewQuestion{Text: "Anything else?", OpenEnded: boolPtr(true)}

	assert.Equal(t, "just plain text", formatAnswer(question, "just plain text"))
}

func TestFormatAnswerScalarNumber(t *testing.T) {
	question := InterviewQuestion{Text: "Years of experience", OpenEnded: boolPtr(false)}

	assert.Equal(t, "7", formatAnswer(question, float64(7)))
}

func TestBuildAnswerRowsExcludesUnanswered(t *testing.T) {
	questions := []InterviewQuestion{
		{Text: "Q1", OpenEnded: boolPtr(false)},
		{Text: "Q2", OpenEnded: boolPtr(false)},
		{Text: "Q3", OpenEnded: boolPtr(false)},
	}

	rows := buildAnswerRows(questions, `["first", "", "[]"]`)

	assert.Len(t, rows, 1)
	assert.Equal(t, "Q1", rows[0].Question)
	assert.Equal(t, "first", rows[0].Answer)
}

func TestBuildAnswerRowsKeepsQuestionOrder(t *testing.T) {
	questions := []InterviewQuestion{
		{Text: "Q1", OpenEnded: boolPtr(false)},
		{Text: "Q2", OpenEnded: boolPtr(false)},
	}

	rows := buildAnswerRows(questions, `["one", "two"]`)

	assert.Len(t, rows, 2)
	assert.Equal(t, "Q1", rows[0].Question)
	assert.Equal(t, "Q2", rows[1].Question)
}
