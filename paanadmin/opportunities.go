package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type Opportunity struct {
	ID       int64  `db:"id, primarykey, autoincrement" json:"id"`
	Title    string `db:"title" json:"title"`
	Summary  string `db:"summary,size:2048" json:"summary"`
	Body     string `db:"body,size:16000" json:"body"`
	LinkURL  string `db:"link_url" json:"link_url"`
	Deadline string `db:"deadline" json:"deadline"`
	Created  int64  `db:"created" json:"created"`
}

func registerOpportunityRoutes(router *gin.Engine) {
	router.GET("/api/opportunities", getOpportunitiesHandler)
	router.POST("/api/opportunities", addOpportunityHandler)
	router.DELETE("/api/opportunities/:opportunityID", deleteOpportunityHandler)
	router.POST("/api/opportunities/notify", notifyOpportunityHandler)
}

func getOpportunitiesHandler(c *gin.Context) {
	opportunities := []Opportunity{}
	_, err := dbmap.Select(&opportunities, "SELECT * FROM opportunities ORDER BY created DESC")
	if err != nil {
		ErrorLog.Println("getOpportunitiesHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, opportunities)
}

func addOpportunityHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := Opportunity{}
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
		ErrorLog.Println("addOpportunityHandler insert err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(http.StatusCreated, input)
}

func deleteOpportunityHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opportunityID := c.Param("opportunityID")

	_, err = dbmap.Exec("DELETE FROM opportunities WHERE id = ?", opportunityID)
	if err != nil {
		ErrorLog.Println("deleteOpportunityHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, gin.H{"message": "Deleted"})
}

func notifyOpportunityHandler(c *gin.Context) {
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

	opportunity := Opportunity{}
	err = dbmap.SelectOne(&opportunity, "SELECT * FROM opportunities WHERE id = ?", input.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	body := BroadcastEmailBody{Title: opportunity.Title, Summary: opportunity.Summary, LinkURL: opportunity.LinkURL}

	notified := broadcastToTiers(input.Tiers, "New PAAN opportunity: "+opportunity.Title, OPPORTUNITY_NOTIFICATION_TEMPLATE, body, "member-opportunity")

	c.JSON(200, gin.H{"notifiedCount": notified})
}
