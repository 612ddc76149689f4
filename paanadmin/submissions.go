package main

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type SubmissionInput struct {
	Kind             string
	OpeningID        string
	Name             string
	Email            string
	Phone            string
	LinkedIn         string
	AgencyName       string
	YearEstablished  string
	Headquarters     string
	Website          string
	SecondaryContact string
	Country          string
	Languages        string
	AnswersJSON      string
	Documents        map[string]string
}

var emailFormatRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func registerSubmissionRoutes(router *gin.Engine) {
	router.POST("/api/submit", submitHandler)
	router.POST("/api/process-submission", processSubmissionHandler)
	router.POST("/api/process-pending-submissions", processPendingSubmissionsHandler)
}

func nowMillis() int64 {
	return time.Now().Unix() * 1000
}

func submitHandler(c *gin.Context) {
	input := bindSubmissionInput(c)

	if err := validateSubmission(input); err != nil {
		ErrorLog.Println("submitHandler validation err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}

	country := resolveCountry(c.GetHeader("CF-IPCountry"), c.ClientIP())
	device := deviceDescriptor(c.GetHeader("User-Agent"))

	candidate, _, err := upsertCandidateAndResponse(input, country, device)
	if err != nil {
		ErrorLog.Println("submitHandler persist err: " + err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "An error occured"})
		return
	}

	InfoLog.Printf("New submission - Kind: %s, Name: %s, Opening: %s, Ref: %s\n", candidate.Kind, candidate.Name, candidate.OpeningID, candidate.ReferenceNumber)

	// email/PDF generation is deferred so the applicant is not blocked on it
	go triggerSubmissionProcessing(candidate.ID)

	c.JSON(200, gin.H{
		"status":          "success",
		"message":         "Application received",
		"referenceNumber": candidate.ReferenceNumber,
	})
}

func bindSubmissionInput(c *gin.Context) SubmissionInput {
	input := SubmissionInput{
		Kind:             c.PostForm("kind"),
		OpeningID:        c.PostForm("opening_id"),
		Name:             c.PostForm("name"),
		Email:            c.PostForm("email"),
		Phone:            c.PostForm("phone"),
		LinkedIn:         c.PostForm("linkedin"),
		AgencyName:       c.PostForm("agency_name"),
		YearEstablished:  c.PostForm("year_established"),
		Headquarters:     c.PostForm("headquarters"),
		Website:          c.PostForm("website"),
		SecondaryContact: c.PostForm("secondary_contact"),
		Country:          c.PostForm("country_of_residence"),
		Languages:        c.PostForm("languages"),
		AnswersJSON:      c.PostForm("answers"),
	}

	documentsField := c.PostForm("documents")
	if documentsField != "" {
		documents := map[string]string{}
		if err := json.Unmarshal([]byte(documentsField), &documents); err != nil {
			ErrorLog.Println("bindSubmissionInput documents err: " + err.Error())
		} else {
			input.Documents = documents
		}
	}

	return input
}

func validateSubmission(input SubmissionInput) error {
	if input.Kind != KIND_AGENCY && input.Kind != KIND_FREELANCER {
		return errors.New("Unknown applicant kind")
	}

	required := map[string]string{
		"opening_id": input.OpeningID,
		"name":       input.Name,
		"email":      input.Email,
	}

	if input.Kind == KIND_AGENCY {
		required["agency_name"] = input.AgencyName
		required["year_established"] = input.YearEstablished
		required["headquarters"] = input.Headquarters
		required["website"] = input.Website
	} else {
		required["country_of_residence"] = input.Country
		required["phone"] = input.Phone
		required["languages"] = input.Languages
	}

	for field, value := range required {
		if value == "" {
			return errors.New("Missing required field: " + field)
		}
	}

	if !emailFormatRe.MatchString(input.Email) {
		return errors.New("Invalid email address")
	}

	if input.Kind == KIND_FREELANCER {
		if !hasAnyAnswer(input.AnswersJSON) {
			return errors.New("At least one answer is required")
		}
	}

	return nil
}

func hasAnyAnswer(answersJSON string) bool {
	if answersJSON == "" {
		return false
	}

	var raws []interface{}
	if err := json.Unmarshal([]byte(answersJSON), &raws); err != nil {
		return false
	}

	for _, raw := range raws {
		if s, ok := raw.(string); ok {
			if s != "" && s != "[]" {
				return true
			}
			continue
		}
		if raw != nil {
			return true
		}
	}

	return false
}

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateReferenceNumber() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i, b := range buf {
		buf[i] = referenceCharset[int(b)%len(referenceCharset)]
	}

	return "PAAN-" + string(buf), nil
}

// upsertCandidateAndResponse keys the candidate on (email, opening id): a
// resubmission to the same opening overwrites instead of duplicating, and the
// original reference number survives.
func upsertCandidateAndResponse(input SubmissionInput, country, device string) (Candidate, Response, error) {
	candidate, err := lookupCandidateByEmailAndOpening(input.Email, input.OpeningID)
	isNew := err != nil

	if isNew {
		referenceNumber, err := generateReferenceNumber()
		if err != nil {
			return Candidate{}, Response{}, errors.New("reference gen err: " + err.Error())
		}
		candidate = Candidate{
			ReferenceNumber: referenceNumber,
			Created:         nowMillis(),
		}
	}

	candidate.Kind = input.Kind
	candidate.Name = input.Name
	candidate.Email = input.Email
	candidate.Phone = input.Phone
	candidate.LinkedIn = input.LinkedIn
	candidate.OpeningID = input.OpeningID
	candidate.Tier = tierFromAnswers(input.Kind, input.AnswersJSON)

	// exactly one of the kind-specific field sets is stored
	if input.Kind == KIND_AGENCY {
		candidate.AgencyName = input.AgencyName
		candidate.YearEstablished = input.YearEstablished
		candidate.Headquarters = input.Headquarters
		candidate.Website = input.Website
		candidate.SecondaryContact = input.SecondaryContact
		candidate.Country = ""
		candidate.Languages = ""
	} else {
		candidate.Country = input.Country
		candidate.Languages = input.Languages
		candidate.AgencyName = ""
		candidate.YearEstablished = ""
		candidate.Headquarters = ""
		candidate.Website = ""
		candidate.SecondaryContact = ""
	}

	if len(input.Documents) > 0 {
		urls := uploadCandidateDocuments(candidate.ReferenceNumber, input.Documents)
		candidate.Documents = PropertyMap{"urls": urls}
	} else if candidate.Documents == nil {
		candidate.Documents = PropertyMap{}
	}

	if isNew {
		err = dbmap.Insert(&candidate)
	} else {
		_, err = dbmap.Update(&candidate)
	}
	if err != nil {
		return Candidate{}, Response{}, errors.New("candidate upsert err: " + err.Error())
	}

	falseV := false
	response, err := findResponseByCandidateID(candidate.ID)
	if err != nil {
		response = Response{CandidateID: candidate.ID}
	}

	response.Answers = input.AnswersJSON
	response.SubmittedAt = nowMillis()
	response.Country = countryForResponse(input, country)
	response.Device = device
	response.Status = STATUS_PENDING
	response.EmailSent = &falseV
	response.Processing = &falseV
	response.ProcessedAt = nil
	response.ErrorMessage = nil

	if response.ID == 0 {
		err = dbmap.Insert(&response)
	} else {
		_, err = dbmap.Update(&response)
	}
	if err != nil {
		return Candidate{}, Response{}, errors.New("response upsert err: " + err.Error())
	}

	return candidate, response, nil
}

func countryForResponse(input SubmissionInput, resolved string) string {
	if resolved != GEO_UNKNOWN && resolved != "" {
		return resolved
	}
	if input.Country != "" {
		return input.Country
	}
	return GEO_UNKNOWN
}

// The tier question is always the first in either question set.
func tierFromAnswers(kind, answersJSON string) string {
	var raws []interface{}
	if err := json.Unmarshal([]byte(answersJSON), &raws); err != nil || len(raws) == 0 {
		return TIER_FREE
	}

	questions, err := loadQuestionsByKind(kind)
	if err != nil || len(questions) == 0 {
		return TIER_FREE
	}

	return normalizeTier(formatAnswer(questions[0], raws[0]))
}

// triggerSubmissionProcessing is the fire-and-forget continuation: the submit
// handler never waits on SMTP or PDF work.
func triggerSubmissionProcessing(candidateID int64) {
	payload, _ := json.Marshal(map[string]int64{"candidate_id": candidateID})

	req, err := http.NewRequest("POST", passwords.PUBLIC_BASE_URL+"/api/process-submission", bytes.NewReader(payload))
	if err != nil {
		ErrorLog.Println("triggerSubmissionProcessing request err: ", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", passwords.ADMIN_KEY)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ErrorLog.Println("triggerSubmissionProcessing err for candidate " + strconv.FormatInt(candidateID, 10) + ": " + err.Error())
		return
	}
	resp.Body.Close()
}
