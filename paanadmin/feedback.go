package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Feedback struct {
	ID      int64  `db:"id, primarykey, autoincrement" json:"id"`
	Name    string `db:"name" json:"name"`
	Email   string `db:"email" json:"email"`
	Message string `db:"message,size:8000" json:"message"`
	Created int64  `db:"created" json:"created"`
}

func registerFeedbackRoutes(router *gin.Engine) {
	router.POST("/api/feedback", addFeedbackHandler)
	router.GET("/api/feedback", getFeedbackHandler)
}

func addFeedbackHandler(c *gin.Context) {
	input := Feedback{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	if input.Email == "" || input.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input"})
		return
	}

	input.Created = nowMillis()
	err := dbmap.Insert(&input)
	if err != nil {
		ErrorLog.Println("addFeedbackHandler insert err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	// acknowledgement failure is logged, the stored feedback stands
	go sendFeedbackAck(input)

	c.JSON(200, gin.H{"message": "Feedback received", "data": input})
}

func getFeedbackHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feedback := []Feedback{}
	_, err = dbmap.Select(&feedback, "SELECT * FROM feedback ORDER BY created DESC LIMIT 200")
	if err != nil {
		ErrorLog.Println("getFeedbackHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, feedback)
}

func sendFeedbackAck(feedback Feedback) {
	emailHeaderInfo := sgEmailFields{
		From:    &sgmail.Email{Name: "PAAN", Address: passwords.NO_REPLY_EMAILER_ADDRESS},
		To:      []*sgmail.Email{{Address: feedback.Email}},
		Bcc:     []*sgmail.Email{{Address: passwords.ADMIN_NOTIFICATION_EMAIL_ADDRESS}},
		Subject: "We received your feedback",
	}

	body := FeedbackAckEmailBody{Name: feedback.Name}

	err := sendTemplatedEmailSendGrid(emailHeaderInfo, FEEDBACK_ACK_EMAIL_TEMPLATE, body, "feedback")
	if err != nil {
		ErrorLog.Println("sendFeedbackAck email err: ", err)
	}
}
