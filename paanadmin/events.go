package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Event struct {
	ID          int64  `db:"id, primarykey, autoincrement" json:"id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description,size:8000" json:"description"`
	Location    string `db:"location" json:"location"`
	StartDate   string `db:"start_date" json:"start_date"`
	Tier        string `db:"tier" json:"tier"`
	Created     int64  `db:"created" json:"created"`
}

func registerEventRoutes(router *gin.Engine) {
	router.GET("/api/events", getEventsHandler)
	router.POST("/api/events", addEventHandler)
	router.DELETE("/api/events/:eventID", deleteEventHandler)
}

func getEventsHandler(c *gin.Context) {
	events := []Event{}
	_, err := dbmap.Select(&events, "SELECT * FROM events ORDER BY start_date ASC")
	if err != nil {
		ErrorLog.Println("getEventsHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, events)
}

func addEventHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := Event{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	if input.Title == "" || input.StartDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input"})
		return
	}

	if _, err := time.Parse(SCHEDULE_DATE_FORMAT, input.StartDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Start date is wrong format"})
		return
	}

	input.Created = nowMillis()
	err = dbmap.Insert(&input)
	if err != nil {
		ErrorLog.Println("addEventHandler insert err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(http.StatusCreated, input)
}

func deleteEventHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventID := c.Param("eventID")

	_, err = dbmap.Exec("DELETE FROM events WHERE id = ?", eventID)
	if err != nil {
		ErrorLog.Println("deleteEventHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, gin.H{"message": "Deleted"})
}

// Daily cron: remind the tier audience about events starting tomorrow.
func sendEventReminders() {
	tomorrow := time.Now().AddDate(0, 0, 1).Format(SCHEDULE_DATE_FORMAT)

	events := []Event{}
	_, err := dbmap.Select(&events, "SELECT * FROM events WHERE start_date = ?", tomorrow)
	if err != nil {
		ErrorLog.Println("sendEventReminders select err: " + err.Error())
		return
	}

	for _, event := range events {
		tiers := []string{TIER_FREE, TIER_ASSOCIATE, TIER_FULL, TIER_GOLD}
		if event.Tier != "" {
			tiers = []string{event.Tier}
		}

		audience, err := tierAudienceWithCache(tiers)
		if err != nil {
			ErrorLog.Println("sendEventReminders audience err: " + err.Error())
			continue
		}

		body := EventReminderEmailBody{Title: event.Title, StartDate: event.StartDate, Location: event.Location}

		sent := 0
		for _, candidate := range audience {
			emailHeaderInfo := sgEmailFields{
				From:    &sgmail.Email{Name: "PAAN Events", Address: passwords.NO_REPLY_EMAILER_ADDRESS},
				To:      []*sgmail.Email{{Address: candidate.Email}},
				Subject: "Tomorrow: " + event.Title,
			}

			err := sendTemplatedEmailSendGrid(emailHeaderInfo, EVENT_REMINDER_EMAIL_TEMPLATE, body, "event-reminder")
			if err != nil {
				ErrorLog.Printf("sendEventReminders send err for %s: %v\n", candidate.Email, err)
				continue
			}
			sent++
		}

		InfoLog.Printf("event %d reminder sent to %d members\n", event.ID, sent)
	}
}
