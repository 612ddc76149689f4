package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Append-only audit trail of pipeline failures. Rows are never updated or
// deleted by the pipeline.
type SubmissionError struct {
	ID           int64  `db:"id, primarykey, autoincrement" json:"id"`
	CandidateID  int64  `db:"candidate_id" json:"candidate_id"`
	ErrorMessage string `db:"error_message,size:2048" json:"error_message"`
	ErrorDetails string `db:"error_details,size:16000" json:"error_details"`
	Created      int64  `db:"created_at" json:"created_at"`
}

func registerSubmissionErrorRoutes(router *gin.Engine) {
	router.GET("/api/errors", getSubmissionErrorsHandler)
}

func getSubmissionErrorsHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submissionErrors := []SubmissionError{}
	_, err = dbmap.Select(&submissionErrors, "SELECT * FROM submission_errors ORDER BY created_at DESC LIMIT 100")
	if err != nil {
		ErrorLog.Println("getSubmissionErrorsHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, submissionErrors)
}

func recordSubmissionError(candidateID int64, message, details string) {
	record := SubmissionError{
		CandidateID:  candidateID,
		ErrorMessage: message,
		ErrorDetails: details,
		Created:      nowMillis(),
	}

	err := dbmap.Insert(&record)
	if err != nil {
		ErrorLog.Println("recordSubmissionError insert err: " + err.Error())
	}
}
