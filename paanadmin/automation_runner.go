package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// runAutomationTick is the authoritative eligibility check, invoked from the
// cron. Eligibility is recomputed from wall-clock time on every tick, so a
// missed tick after a restart is tolerated; any countdown shown in the UI is
// display-only and derived from last_run + interval.
func runAutomationTick() {
	now := time.Now()

	automations := []Automation{}
	_, err := dbmap.Select(&automations, "SELECT * FROM automations WHERE active = 1")
	if err != nil {
		ErrorLog.Println("runAutomationTick select err: " + err.Error())
		return
	}

	for _, automation := range automations {
		if !scheduleEligible(automation, now) {
			continue
		}

		if automation.ConditionValue == "" || automation.ActionValue == "" {
			ErrorLog.Printf("automation %d skipped: empty condition or action value\n", automation.ID)
			continue
		}

		matches, err := matchAutomationCandidates(automation, now)
		if err != nil {
			ErrorLog.Printf("automation %d match err: %v\n", automation.ID, err)
			continue
		}

		succeeded, failed := runAutomationActions(automation, matches, executeAutomationAction)

		automation.LastRun = now.Unix()
		_, err = dbmap.Update(&automation)
		if err != nil {
			ErrorLog.Printf("automation %d last_run update err: %v\n", automation.ID, err)
		}

		InfoLog.Printf("automation %d ticked: %d matched, %d succeeded, %d failed\n", automation.ID, len(matches), succeeded, failed)
	}
}

// scheduleEligible decides whether a rule is due at the given instant.
// Recurring rules with no prior run default to the epoch, so a brand-new rule
// is immediately eligible. Range rules are dormant outside their window, not
// deleted.
func scheduleEligible(a Automation, now time.Time) bool {
	if !a.isActive() {
		return false
	}

	switch a.ScheduleType {
	case SCHEDULE_TYPE_RECURRING:
		if a.IntervalHours <= 0 {
			return false
		}
		lastRun := time.Unix(a.LastRun, 0)
		return !now.Before(lastRun.Add(time.Duration(a.IntervalHours) * time.Hour))
	case SCHEDULE_TYPE_RANGE:
		start, err := time.Parse(SCHEDULE_DATE_FORMAT, a.StartDate)
		if err != nil {
			return false
		}
		end, err := time.Parse(SCHEDULE_DATE_FORMAT, a.EndDate)
		if err != nil {
			return false
		}
		// both boundary days are inclusive
		dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())
		dayEnd := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
		return !now.Before(dayStart) && now.Before(dayEnd)
	}

	return false
}

type automationActionFunc func(a Automation, row CandidateRow) error

// runAutomationActions applies the action per matched candidate. One
// candidate's failure is logged and never aborts the batch.
func runAutomationActions(a Automation, rows []CandidateRow, action automationActionFunc) (int, int) {
	succeeded, failed := 0, 0

	for _, row := range rows {
		err := action(a, row)
		if err != nil {
			ErrorLog.Printf("automation %d action err for candidate %d: %v\n", a.ID, row.Candidate.ID, err)
			failed++
			continue
		}
		succeeded++
	}

	return succeeded, failed
}

func executeAutomationAction(a Automation, row CandidateRow) error {
	switch a.ActionType {
	case ACTION_TYPE_EMAIL:
		return sendAutomationEmail(a, row)
	case ACTION_TYPE_STATUS:
		return applyStatusAction(a, row)
	case ACTION_TYPE_NOTIFY:
		if a.NotifyChannel == NOTIFY_CHANNEL_SLACK {
			return postSlackNotification(a, row)
		}
		return sendInternalNotifyEmail(a, row)
	}

	return errors.New("unknown action type: " + a.ActionType)
}

// action value names an operator-editable template in email_templates
func sendAutomationEmail(a Automation, row CandidateRow) error {
	emailTemplate, err := lookupEmailTemplateByName(a.ActionValue)
	if err != nil {
		return errors.New("template fetch err: " + err.Error())
	}

	data := submissionTemplateData(row.Candidate, &row.Response, nil)

	emailHeaderInfo := sgEmailFields{
		From:    &sgmail.Email{Name: "PAAN", Address: passwords.NO_REPLY_EMAILER_ADDRESS},
		To:      []*sgmail.Email{{Address: row.Candidate.Email}},
		Subject: renderTemplate(emailTemplate.Subject, data),
	}

	return sendHTMLEmailSendGrid(emailHeaderInfo, renderTemplate(emailTemplate.Body, data), nil, "automation")
}

func applyStatusAction(a Automation, row CandidateRow) error {
	if !isValidResponseStatus(a.ActionValue) {
		return errors.New("unknown status value: " + a.ActionValue)
	}

	row.Response.Status = a.ActionValue
	_, err := dbmap.Update(&row.Response)
	return err
}

func sendInternalNotifyEmail(a Automation, row CandidateRow) error {
	emailHeaderInfo := sgEmailFields{
		From:    &sgmail.Email{Name: "PAAN Automations", Address: passwords.NO_REPLY_EMAILER_ADDRESS},
		To:      []*sgmail.Email{{Address: passwords.ADMIN_NOTIFICATION_EMAIL_ADDRESS}},
		Subject: fmt.Sprintf("Automation matched: %s", row.Candidate.Name),
	}

	body := AutomationNotifyEmailBody{
		RuleName:      a.Name,
		CandidateName: row.Candidate.Name,
		Email:         row.Candidate.Email,
		Opening:       row.Candidate.OpeningID,
	}

	return sendTemplatedEmailSendGrid(emailHeaderInfo, AUTOMATION_NOTIFY_EMAIL_TEMPLATE, body, "automation-notify")
}

var slackHTTPClient = &http.Client{Timeout: 10 * time.Second}

func postSlackNotification(a Automation, row CandidateRow) error {
	if passwords.SLACK_WEBHOOK_URL == "" {
		return errors.New("no slack webhook configured")
	}

	text := fmt.Sprintf("Automation *%s* matched %s (%s) for opening %s [status: %s]",
		a.Name, row.Candidate.Name, row.Candidate.Email, row.Candidate.OpeningID, row.Response.Status)

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	resp, err := slackHTTPClient.Post(passwords.SLACK_WEBHOOK_URL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return errors.New("slack webhook err: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook status %d", resp.StatusCode)
	}

	return nil
}
