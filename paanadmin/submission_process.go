package main

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type ProcessSubmissionInput struct {
	CandidateID int64 `json:"candidate_id"`
}

// The deferred continuation of /api/submit: formats answers, renders the two
// kind-specific templates, builds the PDF and sends both emails. Called by
// the submit handler's fire-and-forget request and by operators re-triggering
// a failed row.
func processSubmissionHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := ProcessSubmissionInput{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	candidate := Candidate{}
	err = dbmap.SelectOne(&candidate, "SELECT * FROM candidates WHERE id = ?", input.CandidateID)
	if err != nil {
		ErrorLog.Println("processSubmissionHandler candidate lookup err: " + err.Error())
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	response, err := findResponseByCandidateID(candidate.ID)
	if err != nil {
		ErrorLog.Println("processSubmissionHandler response lookup err: " + err.Error())
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	if !claimResponseForProcessing(response.ID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Submission already processing or already sent"})
		return
	}

	err = processSubmission(candidate, &response)
	if err != nil {
		markSubmissionFailed(&response, err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Processing failed: " + err.Error()})
		return
	}

	markSubmissionComplete(&response)

	c.JSON(200, gin.H{"message": "Submission processed"})
}

// Poll entry point: claims and processes at most the single oldest unsent
// response per invocation, so one poisoned row cannot block a batch.
func processPendingSubmissionsHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message := processOnePendingSubmission()

	c.JSON(200, gin.H{"message": message})
}

func processOnePendingSubmission() string {
	response, claimed := claimOldestPendingResponse()
	if !claimed {
		return "No pending submissions"
	}

	candidate := Candidate{}
	err := dbmap.SelectOne(&candidate, "SELECT * FROM candidates WHERE id = ?", response.CandidateID)
	if err != nil {
		markSubmissionFailed(&response, errors.New("candidate lookup err: "+err.Error()))
		return "Processing failed: orphaned response"
	}

	err = processSubmission(candidate, &response)
	if err != nil {
		markSubmissionFailed(&response, err)
		return "Processing failed: " + err.Error()
	}

	markSubmissionComplete(&response)

	return "Processed submission " + candidate.ReferenceNumber
}

// The poll only ever sees rows on their first pass: a failure stamps
// processed_at, which drops the row out of this query until an operator
// re-triggers it or the applicant resubmits. Without the processed_at
// filter a permanently failing row would be re-selected as the oldest
// unsent row on every tick and starve everything behind it.
const oldestPendingQuery = "SELECT * FROM responses WHERE email_sent = 0 AND processing = 0 AND processed_at IS NULL AND answers <> '' ORDER BY submitted_at ASC LIMIT 1"

// pollEligible mirrors the oldestPendingQuery predicate.
func pollEligible(r Response) bool {
	return !boolVal(r.EmailSent) && !boolVal(r.Processing) && r.ProcessedAt == nil && r.Answers != ""
}

// claimable is looser than pollEligible: failed rows stay claimable so an
// operator can re-trigger them through /api/process-submission.
func claimable(r Response) bool {
	return !boolVal(r.EmailSent) && !boolVal(r.Processing)
}

func boolVal(b *bool) bool {
	return b != nil && *b
}

// claimResponseForProcessing takes the processing marker with a conditional
// update, so two processors (cron poll, direct continuation, operator
// re-trigger) can never both own the same row.
func claimResponseForProcessing(responseID int64) bool {
	result, err := dbmap.Exec("UPDATE responses SET processing = 1 WHERE id = ? AND email_sent = 0 AND processing = 0", responseID)
	if err != nil {
		ErrorLog.Println("claimResponseForProcessing update err: " + err.Error())
		return false
	}

	affected, err := result.RowsAffected()
	if err != nil || affected == 0 {
		// another processor claimed it first
		return false
	}

	return true
}

// claimOldestPendingResponse selects the oldest never-processed row with
// answer data and claims it.
func claimOldestPendingResponse() (Response, bool) {
	response := Response{}
	err := dbmap.SelectOne(&response, oldestPendingQuery)
	if err != nil {
		return Response{}, false
	}

	if !claimResponseForProcessing(response.ID) {
		return Response{}, false
	}

	trueV := true
	response.Processing = &trueV

	return response, true
}

func processSubmission(candidate Candidate, response *Response) error {
	questions, err := loadQuestionsByKind(candidate.Kind)
	if err != nil {
		return errors.New("loadQuestionsByKind err: " + err.Error())
	}

	rows := buildAnswerRows(questions, response.Answers)

	data := submissionTemplateData(candidate, response, rows)

	candidateTemplateName := TEMPLATE_CANDIDATE_CONFIRMATION_FREELANCER
	adminTemplateName := TEMPLATE_ADMIN_NOTIFICATION_FREELANCER
	adminAddress := passwords.FREELANCER_ADMIN_EMAIL_ADDRESS
	if candidate.Kind == KIND_AGENCY {
		candidateTemplateName = TEMPLATE_CANDIDATE_CONFIRMATION_AGENCY
		adminTemplateName = TEMPLATE_ADMIN_NOTIFICATION_AGENCY
		adminAddress = passwords.AGENCY_ADMIN_EMAIL_ADDRESS
	}

	candidateTemplate, err := lookupEmailTemplateByName(candidateTemplateName)
	if err != nil {
		return errors.New("candidate template fetch err: " + err.Error())
	}

	adminTemplate, err := lookupEmailTemplateByName(adminTemplateName)
	if err != nil {
		return errors.New("admin template fetch err: " + err.Error())
	}

	pdfBytes, err := buildAnswersPDF(candidate, rows)
	if err != nil {
		return errors.New("buildAnswersPDF err: " + err.Error())
	}

	candidateEmail := sgEmailFields{
		From:    &sgmail.Email{Name: "PAAN", Address: passwords.NO_REPLY_EMAILER_ADDRESS},
		To:      []*sgmail.Email{{Address: candidate.Email}},
		Subject: renderTemplate(candidateTemplate.Subject, data),
	}

	err = sendHTMLEmailSendGrid(candidateEmail, renderTemplate(candidateTemplate.Body, data), nil, "application-confirmation")
	if err != nil {
		return errors.New("candidate email err: " + err.Error())
	}

	adminEmail := sgEmailFields{
		From:    &sgmail.Email{Name: "PAAN Applications", Address: passwords.NO_REPLY_EMAILER_ADDRESS},
		To:      []*sgmail.Email{{Address: adminAddress}},
		Bcc:     []*sgmail.Email{{Address: passwords.ADMIN_NOTIFICATION_EMAIL_ADDRESS}},
		Subject: renderTemplate(adminTemplate.Subject, data),
	}

	attachment := &emailAttachment{
		FileName: candidate.ReferenceNumber + ".pdf",
		MIMEType: "application/pdf",
		Data:     pdfBytes,
	}

	err = sendHTMLEmailSendGrid(adminEmail, renderTemplate(adminTemplate.Body, data), attachment, "application-admin-notice")
	if err != nil {
		return errors.New("admin email err: " + err.Error())
	}

	return nil
}

func submissionTemplateData(candidate Candidate, response *Response, rows []FormattedAnswer) TemplateData {
	answerItems := []map[string]string{}
	for _, row := range rows {
		answerItems = append(answerItems, map[string]string{
			"question": row.Question,
			"answer":   row.Answer,
		})
	}

	return TemplateData{
		Fields: map[string]string{
			"name":             candidate.Name,
			"email":            candidate.Email,
			"phone":            candidate.Phone,
			"reference_number": candidate.ReferenceNumber,
			"opening_id":       candidate.OpeningID,
			"agency_name":      candidate.AgencyName,
			"year_established": candidate.YearEstablished,
			"headquarters":     candidate.Headquarters,
			"website":          candidate.Website,
			"country":          response.Country,
			"languages":        candidate.Languages,
			"tier":             candidate.Tier,
			"device":           response.Device,
		},
		Lists: map[string][]map[string]string{
			"answers": answerItems,
		},
	}
}

// email_sent only ever transitions false to true, and exactly once.
func applyCompletionState(response *Response, at int64) {
	trueV := true
	falseV := false

	response.EmailSent = &trueV
	response.Processing = &falseV
	response.ProcessedAt = &at
	response.ErrorMessage = nil
}

func markSubmissionComplete(response *Response) {
	applyCompletionState(response, nowMillis())

	_, err := dbmap.Update(response)
	if err != nil {
		ErrorLog.Println("markSubmissionComplete update err: " + err.Error())
	}
}

// processed_at is stamped on failure too, taking the row out of the poll.
func applyFailureState(response *Response, cause error, at int64) {
	falseV := false
	message := cause.Error()

	response.Status = STATUS_FAILED
	response.Processing = &falseV
	response.ProcessedAt = &at
	response.ErrorMessage = &message
}

// No retry here: the failure trail is durable and re-processing is a manual
// operator action.
func markSubmissionFailed(response *Response, cause error) {
	ErrorLog.Printf("submission processing failed for candidate %d: %v\n", response.CandidateID, cause)

	applyFailureState(response, cause, nowMillis())

	if response.ID != 0 {
		_, err := dbmap.Update(response)
		if err != nil {
			ErrorLog.Println("markSubmissionFailed update err: " + err.Error())
		}
	}

	recordSubmissionError(response.CandidateID, *response.ErrorMessage, string(debug.Stack()))
}
