package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Update struct {
	ID      int64  `db:"id, primarykey, autoincrement" json:"id"`
	Title   string `db:"title" json:"title"`
	Summary string `db:"summary,size:2048" json:"summary"`
	Body    string `db:"body,size:16000" json:"body"`
	LinkURL string `db:"link_url" json:"link_url"`
	Created int64  `db:"created" json:"created"`
}

func registerUpdateRoutes(router *gin.Engine) {
	router.GET("/api/updates", getUpdatesHandler)
	router.POST("/api/updates", addUpdateHandler)
	router.DELETE("/api/updates/:updateID", deleteUpdateHandler)
	router.POST("/api/updates/notify", notifyUpdateHandler)
}

func getUpdatesHandler(c *gin.Context) {
	updates := []Update{}
	_, err := dbmap.Select(&updates, "SELECT * FROM updates ORDER BY created DESC")
	if err != nil {
		ErrorLog.Println("getUpdatesHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, updates)
}

func addUpdateHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := Update{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	if input.Title == "" || input.Summary == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input"})
		return
	}

	input.Created = nowMillis()
	err = dbmap.Insert(&input)
	if err != nil {
		ErrorLog.Println("addUpdateHandler insert err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(http.StatusCreated, input)
}

func deleteUpdateHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updateID := c.Param("updateID")

	_, err = dbmap.Exec("DELETE FROM updates WHERE id = ?", updateID)
	if err != nil {
		ErrorLog.Println("deleteUpdateHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, gin.H{"message": "Deleted"})
}

type NotifyInput struct {
	ID    int64    `json:"id"`
	Tiers []string `json:"tiers"`
}

func notifyUpdateHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := NotifyInput{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	update := Update{}
	err = dbmap.SelectOne(&update, "SELECT * FROM updates WHERE id = ?", input.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	body := BroadcastEmailBody{Title: update.Title, Summary: update.Summary, LinkURL: update.LinkURL}

	notified := broadcastToTiers(input.Tiers, "PAAN update: "+update.Title, UPDATE_NOTIFICATION_EMAIL_TEMPLATE, body, "member-update")

	c.JSON(200, gin.H{"notifiedCount": notified})
}

// broadcastToTiers sends one email per candidate in the tier audience. Send
// failures are logged and skipped, the broadcast continues.
func broadcastToTiers(tiers []string, subject, templateName string, body interface{}, category string) int {
	audience, err := tierAudienceWithCache(tiers)
	if err != nil {
		ErrorLog.Println("broadcastToTiers audience err: " + err.Error())
		return 0
	}

	notified := 0
	for _, candidate := range audience {
		emailHeaderInfo := sgEmailFields{
			From:    &sgmail.Email{Name: "PAAN", Address: passwords.NO_REPLY_EMAILER_ADDRESS},
			To:      []*sgmail.Email{{Address: candidate.Email}},
			Subject: subject,
		}

		err := sendTemplatedEmailSendGrid(emailHeaderInfo, templateName, body, category)
		if err != nil {
			ErrorLog.Printf("broadcastToTiers send err for %s: %v\n", candidate.Email, err)
			continue
		}
		notified++
	}

	return notified
}

func tierAudienceWithCache(tiers []string) ([]Candidate, error) {
	cacheKey := strings.Join(tiers, ",") + CACHENAME_NOTIFY_AUDIENCE

	if cached, found := cash.Get(cacheKey); found {
		if audience, isType := cached.([]Candidate); isType {
			InfoLog.Println("tierAudienceWithCache hit cache!")
			return audience, nil
		}
	}

	audience, err := findCandidatesByTiers(tiers)
	if err != nil {
		return nil, err
	}

	cash.Set(cacheKey, audience, 5*time.Minute)

	return audience, nil
}
