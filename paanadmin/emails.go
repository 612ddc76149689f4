package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"html/template"
	"path/filepath"

	sendgrid "github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var templates *template.Template

type sgEmailFields struct {
	From    *sgmail.Email
	To      []*sgmail.Email
	Cc      []*sgmail.Email
	Bcc     []*sgmail.Email
	Subject string
}

type emailAttachment struct {
	FileName string
	MIMEType string
	Data     []byte
}

const (
	FEEDBACK_ACK_EMAIL_TEMPLATE         = "feedback_ack.html"
	UPDATE_NOTIFICATION_EMAIL_TEMPLATE  = "update_notification.html"
	OPPORTUNITY_NOTIFICATION_TEMPLATE   = "opportunity_notification.html"
	EVENT_REMINDER_EMAIL_TEMPLATE       = "event_reminder.html"
	AUTOMATION_NOTIFY_EMAIL_TEMPLATE    = "automation_notify.html"
	TEST_EMAIL_TEMPLATE                 = "test_template.html"
)

func initEmailTemplates() {
	absPath := "/etc/paanadmin/templates/*"
	if !env.Production {
		absPath, _ = filepath.Abs("./paanadmin/templates/*")
	}

	templates = template.Must(template.ParseGlob(absPath))
}

type FeedbackAckEmailBody struct {
	Name string
}

type BroadcastEmailBody struct {
	Title   string
	Summary string
	LinkURL string
}

type EventReminderEmailBody struct {
	Title     string
	StartDate string
	Location  string
}

type AutomationNotifyEmailBody struct {
	RuleName      string
	CandidateName string
	Email         string
	Opening       string
}

func sendTemplatedEmailSendGrid(emailInfo sgEmailFields, templateToUse string, templateData interface{}, categories ...string) error {
	temp := templates.Lookup(templateToUse)
	var tpl bytes.Buffer
	if err := temp.Execute(&tpl, templateData); err != nil {
		return errors.New("template execute err: " + err.Error())
	}

	return sendHTMLEmailSendGrid(emailInfo, tpl.String(), nil, categories...)
}

func sendHTMLEmailSendGrid(emailInfo sgEmailFields, htmlContent string, attachment *emailAttachment, categories ...string) error {
	m := sgmail.NewV3Mail()

	m.SetFrom(emailInfo.From)

	content := sgmail.NewContent("text/html", htmlContent)
	m.AddContent(content)

	personalization := sgmail.NewPersonalization()
	personalization.AddTos(emailInfo.To...)
	personalization.AddCCs(emailInfo.Cc...)
	personalization.AddBCCs(emailInfo.Bcc...)
	personalization.Subject = emailInfo.Subject

	m.AddPersonalizations(personalization)

	m.AddCategories(categories...)

	if attachment != nil {
		a := sgmail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(attachment.Data))
		a.SetType(attachment.MIMEType)
		a.SetFilename(attachment.FileName)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}

	request := sendgrid.GetRequest(passwords.SG_EMAILER_PASSWORD, "/v3/mail/send", "https://api.sendgrid.com")
	request.Method = "POST"
	request.Body = sgmail.GetRequestBody(m)
	_, err := sendgrid.API(request)
	if err != nil {
		return errors.New("err SENDGRID API request: " + err.Error())
	}

	return nil
}

func sendTestEmail(to string) {
	emailHeaderInfo := sgEmailFields{
		From:    &sgmail.Email{Name: "PAAN", Address: passwords.NO_REPLY_EMAILER_ADDRESS},
		To:      []*sgmail.Email{{Address: to}},
		Subject: "PAAN admin test email",
	}

	err := sendTemplatedEmailSendGrid(emailHeaderInfo, TEST_EMAIL_TEMPLATE, nil)
	if err != nil {
		ErrorLog.Println("email test err: ", err)
	}
}
