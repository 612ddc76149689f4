package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// EmailTemplate bodies are operator-editable and use {{field}} tokens with
// {{#if x}} and {{#each list}} blocks, rendered by renderTemplate. The
// submission pipeline only ever reads these.
type EmailTemplate struct {
	ID      int64  `db:"id, primarykey, autoincrement" json:"id"`
	Name    string `db:"name" json:"name"`
	Subject string `db:"subject" json:"subject"`
	Body    string `db:"body,size:16000" json:"body"`
	Created int64  `db:"created" json:"created"`
}

const (
	TEMPLATE_CANDIDATE_CONFIRMATION_AGENCY     = "candidate_confirmation_agency"
	TEMPLATE_CANDIDATE_CONFIRMATION_FREELANCER = "candidate_confirmation_freelancer"
	TEMPLATE_ADMIN_NOTIFICATION_AGENCY         = "admin_notification_agency"
	TEMPLATE_ADMIN_NOTIFICATION_FREELANCER     = "admin_notification_freelancer"
)

func registerEmailTemplateRoutes(router *gin.Engine) {
	router.GET("/api/templates", getEmailTemplatesHandler)
	router.POST("/api/templates", addEmailTemplateHandler)
	router.POST("/api/templates/:templateID", updateEmailTemplateHandler)
	router.DELETE("/api/templates/:templateID", deleteEmailTemplateHandler)
}

func getEmailTemplatesHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allTemplates := []EmailTemplate{}
	_, err = dbmap.Select(&allTemplates, "SELECT * FROM email_templates ORDER BY name ASC")
	if err != nil {
		ErrorLog.Println("getEmailTemplatesHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, allTemplates)
}

func addEmailTemplateHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := EmailTemplate{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	if input.Name == "" || input.Subject == "" || input.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input"})
		return
	}

	existing := EmailTemplate{}
	err = dbmap.SelectOne(&existing, "SELECT * FROM email_templates WHERE name = ?", input.Name)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Template name already exists"})
		return
	}

	input.Created = nowMillis()
	err = dbmap.Insert(&input)
	if err != nil {
		ErrorLog.Println("addEmailTemplateHandler insert err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(http.StatusCreated, input)
}

func updateEmailTemplateHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	templateID := c.Param("templateID")

	existing := EmailTemplate{}
	err = dbmap.SelectOne(&existing, "SELECT * FROM email_templates WHERE id = ?", templateID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	input := EmailTemplate{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	existing.Subject = input.Subject
	existing.Body = input.Body
	_, err = dbmap.Update(&existing)
	if err != nil {
		ErrorLog.Println("updateEmailTemplateHandler update err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, existing)
}

func deleteEmailTemplateHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	templateID := c.Param("templateID")

	_, err = dbmap.Exec("DELETE FROM email_templates WHERE id = ?", templateID)
	if err != nil {
		ErrorLog.Println("deleteEmailTemplateHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, gin.H{"message": "Deleted"})
}

func lookupEmailTemplateByName(name string) (EmailTemplate, error) {
	emailTemplate := EmailTemplate{}
	err := dbmap.SelectOne(&emailTemplate, "SELECT * FROM email_templates WHERE name = ?", name)
	return emailTemplate, err
}

func seedEmailTemplates() {
	count, err := dbmap.SelectInt("SELECT COUNT(*) FROM email_templates")
	if err != nil || count > 0 {
		return
	}

	defaults := []EmailTemplate{
		{
			Name:    TEMPLATE_CANDIDATE_CONFIRMATION_AGENCY,
			Subject: "PAAN membership application received - {{reference_number}}",
			Body: "<p>Dear {{name}},</p>" +
				"<p>We have received the application for {{agency_name}}. Your reference number is <b>{{reference_number}}</b>.</p>" +
				"{{#if website}}<p>We will review {{website}} as part of the vetting process.</p>{{/if}}" +
				"<p>The PAAN Team</p>",
		},
		{
			Name:    TEMPLATE_CANDIDATE_CONFIRMATION_FREELANCER,
			Subject: "PAAN freelancer application received - {{reference_number}}",
			Body: "<p>Dear {{name}},</p>" +
				"<p>We have received your application. Your reference number is <b>{{reference_number}}</b>.</p>" +
				"<p>The PAAN Team</p>",
		},
		{
			Name:    TEMPLATE_ADMIN_NOTIFICATION_AGENCY,
			Subject: "New agency application: {{agency_name}} ({{reference_number}})",
			Body: "<p>{{name}} submitted an agency application for opening {{opening_id}} from {{country}}.</p>" +
				"<table>{{#each answers}}<tr><td><b>{{question}}</b></td><td>{{answer}}</td></tr>{{/each}}</table>" +
				"<p>A PDF summary is attached.</p>",
		},
		{
			Name:    TEMPLATE_ADMIN_NOTIFICATION_FREELANCER,
			Subject: "New freelancer application: {{name}} ({{reference_number}})",
			Body: "<p>{{name}} submitted a freelancer application for opening {{opening_id}} from {{country}}.</p>" +
				"<table>{{#each answers}}<tr><td><b>{{question}}</b></td><td>{{answer}}</td></tr>{{/each}}</table>" +
				"<p>A PDF summary is attached.</p>",
		},
	}

	for i := range defaults {
		defaults[i].Created = nowMillis()
		if err := dbmap.Insert(&defaults[i]); err != nil {
			ErrorLog.Println("seedEmailTemplates insert err: " + err.Error())
		}
	}

	InfoLog.Println("seeded email templates")
}
