package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type StatusEmailInput struct {
	CandidateID  int64  `json:"candidate_id"`
	TemplateName string `json:"template_name"`
}

func registerStatusEmailRoutes(router *gin.Engine) {
	router.POST("/api/send-status-email", sendStatusEmailHandler)
}

// Ad-hoc send of any operator template to one candidate, used from the
// candidate detail view.
func sendStatusEmailHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := StatusEmailInput{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	if input.TemplateName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input"})
		return
	}

	candidate := Candidate{}
	err = dbmap.SelectOne(&candidate, "SELECT * FROM candidates WHERE id = ?", input.CandidateID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	response, err := findResponseByCandidateID(candidate.ID)
	if err != nil {
		ErrorLog.Println("sendStatusEmailHandler response err: " + err.Error())
		response = Response{CandidateID: candidate.ID}
	}

	emailTemplate, err := lookupEmailTemplateByName(input.TemplateName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	data := submissionTemplateData(candidate, &response, nil)

	emailHeaderInfo := sgEmailFields{
		From:    &sgmail.Email{Name: "PAAN", Address: passwords.NO_REPLY_EMAILER_ADDRESS},
		To:      []*sgmail.Email{{Address: candidate.Email}},
		Subject: renderTemplate(emailTemplate.Subject, data),
	}

	err = sendHTMLEmailSendGrid(emailHeaderInfo, renderTemplate(emailTemplate.Body, data), nil, "status-email")
	if err != nil {
		ErrorLog.Println("sendStatusEmailHandler send err: ", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, gin.H{"message": "Email sent to " + candidate.Email})
}
