package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type InterviewQuestion struct {
	ID           int64  `db:"id, primarykey, autoincrement" json:"id"`
	Kind         string `db:"kind" json:"kind"`
	Position     int64  `db:"position" json:"position"`
	Text         string `db:"text,size:2048" json:"text"`
	OpenEnded    *bool  `db:"open_ended" json:"open_ended"`
	SchemaFields string `db:"schema_fields" json:"schema_fields"`
}

const ANSWER_NONE_PROVIDED = "None provided"

func registerQuestionRoutes(router *gin.Engine) {
	router.GET("/api/questions", getQuestionsHandler)
	router.POST("/api/questions", addQuestionHandler)
	router.POST("/api/questions/:questionID", updateQuestionHandler)
	router.DELETE("/api/questions/:questionID", deleteQuestionHandler)
}

func getQuestionsHandler(c *gin.Context) {
	kind := c.Query("kind")
	if kind != KIND_AGENCY && kind != KIND_FREELANCER {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown applicant kind"})
		return
	}

	questions, err := loadQuestionsByKind(kind)
	if err != nil {
		ErrorLog.Println("getQuestionsHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, questions)
}

func addQuestionHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := InterviewQuestion{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	if input.Text == "" || (input.Kind != KIND_AGENCY && input.Kind != KIND_FREELANCER) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input"})
		return
	}

	if input.OpenEnded == nil {
		falseV := false
		input.OpenEnded = &falseV
	}

	err = dbmap.Insert(&input)
	if err != nil {
		ErrorLog.Println("addQuestionHandler insert err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(http.StatusCreated, input)
}

func updateQuestionHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	questionID := c.Param("questionID")

	existing := InterviewQuestion{}
	err = dbmap.SelectOne(&existing, "SELECT * FROM interview_questions WHERE id = ?", questionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	input := InterviewQuestion{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	input.ID = existing.ID
	_, err = dbmap.Update(&input)
	if err != nil {
		ErrorLog.Println("updateQuestionHandler update err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, input)
}

func deleteQuestionHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	questionID := c.Param("questionID")

	_, err = dbmap.Exec("DELETE FROM interview_questions WHERE id = ?", questionID)
	if err != nil {
		ErrorLog.Println("deleteQuestionHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, gin.H{"message": "Deleted"})
}

func loadQuestionsByKind(kind string) ([]InterviewQuestion, error) {
	questions := []InterviewQuestion{}
	_, err := dbmap.Select(&questions, "SELECT * FROM interview_questions WHERE kind = ? ORDER BY position ASC", kind)
	return questions, err
}

func (q *InterviewQuestion) schemaFieldNames() []string {
	if q.SchemaFields == "" {
		return nil
	}

	names := []string{}
	if err := json.Unmarshal([]byte(q.SchemaFields), &names); err != nil {
		ErrorLog.Println("schemaFieldNames unmarshal err: " + err.Error())
		return nil
	}

	return names
}

func (q *InterviewQuestion) isOpenEnded() bool {
	return q.OpenEnded != nil && *q.OpenEnded
}

// formatAnswer normalizes the several author-chosen answer shapes (plain text,
// link+text pairs, structured multi-field blocks) into display text for the
// notification email and the PDF summary.
func formatAnswer(q InterviewQuestion, raw interface{}) string {
	if raw == nil {
		return ANSWER_NONE_PROVIDED
	}

	var items []interface{}

	switch v := raw.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" || trimmed == "[]" {
			return ANSWER_NONE_PROVIDED
		}

		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			// not JSON, keep the raw text
			return trimmed
		}
	case []interface{}:
		items = v
	default:
		return stringifyScalar(raw)
	}

	if len(items) == 0 {
		return ANSWER_NONE_PROVIDED
	}

	formatted := ""
	if q.isOpenEnded() {
		schema := q.schemaFieldNames()
		if len(schema) > 0 {
			formatted = formatStructuredItems(items, schema)
		} else {
			formatted = formatFreeTextItems(items)
		}
	} else {
		formatted = formatChoiceItems(items)
	}

	if formatted == "" {
		return ANSWER_NONE_PROVIDED
	}

	return formatted
}

func formatStructuredItems(items []interface{}, schema []string) string {
	lines := []string{}
	for _, item := range items {
		embedded := extractItemText(item)
		if embedded == "" {
			continue
		}

		fieldValues := map[string]interface{}{}
		if err := json.Unmarshal([]byte(embedded), &fieldValues); err != nil {
			lines = append(lines, "- "+embedded)
			continue
		}

		pairs := []string{}
		for _, field := range schema {
			value, ok := lookupFieldValue(fieldValues, field)
			if !ok {
				continue
			}
			pairs = append(pairs, fmt.Sprintf("%s: %s", field, stringifyScalar(value)))
		}

		if len(pairs) > 0 {
			lines = append(lines, "- "+strings.Join(pairs, ", "))
		}
	}

	return strings.Join(lines, "\n")
}

func formatFreeTextItems(items []interface{}) string {
	lines := []string{}
	for _, item := range items {
		text := extractItemText(item)
		if text == "" {
			continue
		}

		if m, ok := item.(map[string]interface{}); ok {
			if link, ok := m["link"].(string); ok && link != "" {
				text = text + " (Link: " + link + ")"
			}
		}

		lines = append(lines, text)
	}

	return strings.Join(lines, "\n")
}

func formatChoiceItems(items []interface{}) string {
	values := []string{}
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if v != "" {
				values = append(values, v)
			}
		case map[string]interface{}:
			if option, ok := v["option"].(string); ok && option != "" {
				values = append(values, option)
			} else if custom, ok := v["customText"].(string); ok && custom != "" {
				values = append(values, custom)
			}
		default:
			values = append(values, stringifyScalar(v))
		}
	}

	return strings.Join(values, ", ")
}

func extractItemText(item interface{}) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]interface{}:
		if text, ok := v["text"].(string); ok && text != "" {
			return text
		}
		if custom, ok := v["customText"].(string); ok && custom != "" {
			return custom
		}
	}
	return ""
}

func lookupFieldValue(fieldValues map[string]interface{}, field string) (interface{}, bool) {
	if v, ok := fieldValues[field]; ok {
		return v, true
	}

	// embedded JSON keys are typically lowercased versions of the schema names
	for k, v := range fieldValues {
		if strings.EqualFold(k, field) {
			return v, true
		}
	}

	return nil, false
}

func stringifyScalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

type FormattedAnswer struct {
	Question string
	Answer   string
}

// buildAnswerRows pairs questions with formatted answers in question order,
// dropping unanswered entries from the email/PDF table.
func buildAnswerRows(questions []InterviewQuestion, answersJSON string) []FormattedAnswer {
	var raws []interface{}
	if answersJSON != "" {
		if err := json.Unmarshal([]byte(answersJSON), &raws); err != nil {
			ErrorLog.Println("buildAnswerRows unmarshal err: " + err.Error())
		}
	}

	rows := []FormattedAnswer{}
	for i, question := range questions {
		var raw interface{}
		if i < len(raws) {
			raw = raws[i]
		}

		formatted := formatAnswer(question, raw)
		if formatted == ANSWER_NONE_PROVIDED {
			continue
		}

		rows = append(rows, FormattedAnswer{Question: question.Text, Answer: formatted})
	}

	return rows
}

func seedInterviewQuestions() {
	count, err := dbmap.SelectInt("SELECT COUNT(*) FROM interview_questions")
	if err != nil || count > 0 {
		return
	}

	trueV := true
	falseV := false

	defaults := []InterviewQuestion{
		{Kind: KIND_AGENCY, Position: 1, Text: "Which membership tier are you applying for?", OpenEnded: &falseV},
		{Kind: KIND_AGENCY, Position: 2, Text: "Which services does your agency offer?", OpenEnded: &falseV},
		{Kind: KIND_AGENCY, Position: 3, Text: "List your key team members", OpenEnded: &trueV, SchemaFields: `["Name","Role","Years"]`},
		{Kind: KIND_AGENCY, Position: 4, Text: "Share recent campaigns you are proud of", OpenEnded: &trueV},
		{Kind: KIND_FREELANCER, Position: 1, Text: "Which membership tier are you applying for?", OpenEnded: &falseV},
		{Kind: KIND_FREELANCER, Position: 2, Text: "What are your core skills?", OpenEnded: &falseV},
		{Kind: KIND_FREELANCER, Position: 3, Text: "List your most relevant projects", OpenEnded: &trueV, SchemaFields: `["Name","Rate"]`},
		{Kind: KIND_FREELANCER, Position: 4, Text: "Share portfolio links", OpenEnded: &trueV},
	}

	for i := range defaults {
		if err := dbmap.Insert(&defaults[i]); err != nil {
			ErrorLog.Println("seedInterviewQuestions insert err: " + err.Error())
		}
	}

	InfoLog.Println("seeded interview questions")
}
