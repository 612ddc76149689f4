package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Automation is a stored condition/action/schedule rule evaluated against
// candidates and their responses.
type Automation struct {
	ID                int64  `db:"id, primarykey, autoincrement" json:"id"`
	Name              string `db:"name" json:"name"`
	ConditionField    string `db:"condition_field" json:"condition_field"`
	ConditionOperator string `db:"condition_operator" json:"condition_operator"`
	ConditionValue    string `db:"condition_value" json:"condition_value"`
	ActionType        string `db:"action_type" json:"action_type"`
	ActionValue       string `db:"action_value" json:"action_value"`
	NotifyChannel     string `db:"notify_channel" json:"notify_channel"`
	ScheduleType      string `db:"schedule_type" json:"schedule_type"`
	IntervalHours     int64  `db:"interval_hours" json:"interval_hours"`
	StartDate         string `db:"start_date" json:"start_date"`
	EndDate           string `db:"end_date" json:"end_date"`
	Active            *bool  `db:"active" json:"active"`
	LastRun           int64  `db:"last_run" json:"last_run"`
	Created           int64  `db:"created" json:"created"`
}

const (
	CONDITION_FIELD_SCORE        = "score"
	CONDITION_FIELD_STATUS       = "status"
	CONDITION_FIELD_SUBMITTED_AT = "submitted_at"

	ACTION_TYPE_EMAIL  = "email"
	ACTION_TYPE_STATUS = "status"
	ACTION_TYPE_NOTIFY = "notify"

	NOTIFY_CHANNEL_SLACK = "slack"
	NOTIFY_CHANNEL_EMAIL = "email"

	SCHEDULE_TYPE_RECURRING = "recurring"
	SCHEDULE_TYPE_RANGE     = "range"

	SCHEDULE_DATE_FORMAT = "2006-01-02"
)

func registerAutomationRoutes(router *gin.Engine) {
	router.GET("/api/automations", getAutomationsHandler)
	router.POST("/api/automations", addAutomationHandler)
	router.POST("/api/automations/:automationID", updateAutomationHandler)
	router.POST("/api/automations/:automationID/toggle", toggleAutomationHandler)
	router.POST("/api/automations/:automationID/preview", previewAutomationHandler)
	router.DELETE("/api/automations/:automationID", deleteAutomationHandler)
	router.POST("/api/run-automation-now", runAutomationNowHandler)
}

func (a *Automation) isActive() bool {
	return a.Active != nil && *a.Active
}

func validateAutomation(input *Automation) string {
	switch input.ConditionField {
	case CONDITION_FIELD_SCORE, CONDITION_FIELD_STATUS, CONDITION_FIELD_SUBMITTED_AT:
	default:
		return "Unknown condition field"
	}

	switch input.ConditionOperator {
	case ">", "<", "=":
	default:
		return "Unknown condition operator"
	}

	// status comparisons are equality only
	if input.ConditionField == CONDITION_FIELD_STATUS {
		input.ConditionOperator = "="
	}

	switch input.ActionType {
	case ACTION_TYPE_EMAIL, ACTION_TYPE_STATUS:
	case ACTION_TYPE_NOTIFY:
		if input.NotifyChannel != NOTIFY_CHANNEL_SLACK && input.NotifyChannel != NOTIFY_CHANNEL_EMAIL {
			return "Notify actions need a slack or email channel"
		}
	default:
		return "Unknown action type"
	}

	switch input.ScheduleType {
	case SCHEDULE_TYPE_RECURRING:
		if input.IntervalHours <= 0 {
			return "Recurring schedules need a positive interval"
		}
	case SCHEDULE_TYPE_RANGE:
		if input.StartDate == "" || input.EndDate == "" {
			return "Range schedules need both start and end date"
		}
		if _, err := time.Parse(SCHEDULE_DATE_FORMAT, input.StartDate); err != nil {
			return "Start date is wrong format"
		}
		if _, err := time.Parse(SCHEDULE_DATE_FORMAT, input.EndDate); err != nil {
			return "End date is wrong format"
		}
	default:
		return "Unknown schedule type"
	}

	return ""
}

func getAutomationsHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	automations := []Automation{}
	_, err = dbmap.Select(&automations, "SELECT * FROM automations ORDER BY created DESC")
	if err != nil {
		ErrorLog.Println("getAutomationsHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, automations)
}

func addAutomationHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := Automation{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	if msg := validateAutomation(&input); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if input.Active == nil {
		trueV := true
		input.Active = &trueV
	}

	input.LastRun = 0
	input.Created = nowMillis()

	err = dbmap.Insert(&input)
	if err != nil {
		ErrorLog.Println("addAutomationHandler insert err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(http.StatusCreated, input)
}

func updateAutomationHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := lookupAutomationByParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	input := Automation{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	if msg := validateAutomation(&input); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	input.ID = existing.ID
	input.LastRun = existing.LastRun
	input.Created = existing.Created
	if input.Active == nil {
		input.Active = existing.Active
	}

	_, err = dbmap.Update(&input)
	if err != nil {
		ErrorLog.Println("updateAutomationHandler update err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, input)
}

// Toggling is idempotent: setting the already-held state is a no-op write.
func toggleAutomationHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	automation, err := lookupAutomationByParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	newState := !automation.isActive()
	automation.Active = &newState

	_, err = dbmap.Update(&automation)
	if err != nil {
		ErrorLog.Println("toggleAutomationHandler update err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, automation)
}

// Deletion is irreversible.
func deleteAutomationHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	automation, err := lookupAutomationByParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	_, err = dbmap.Delete(&automation)
	if err != nil {
		ErrorLog.Println("deleteAutomationHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, gin.H{"message": "Deleted"})
}

// previewAutomationHandler returns the current match set without executing
// the action, so the editor can show "N candidates match" before saving.
func previewAutomationHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	automation, err := lookupAutomationByParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	matches, err := matchAutomationCandidates(automation, time.Now())
	if err != nil {
		ErrorLog.Println("previewAutomationHandler match err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	candidates := []Candidate{}
	for _, row := range matches {
		candidates = append(candidates, row.Candidate)
	}

	c.JSON(200, gin.H{"matchCount": len(candidates), "candidates": candidates})
}

type RunAutomationNowInput struct {
	AutomationID int64 `json:"automation_id"`
}

func runAutomationNowHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := RunAutomationNowInput{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	automation := Automation{}
	err = dbmap.SelectOne(&automation, "SELECT * FROM automations WHERE id = ?", input.AutomationID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	if automation.ConditionValue == "" || automation.ActionValue == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Automation needs both a condition value and an action value"})
		return
	}

	matches, err := matchAutomationCandidates(automation, time.Now())
	if err != nil {
		ErrorLog.Println("runAutomationNowHandler match err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	succeeded, failed := runAutomationActions(automation, matches, executeAutomationAction)

	automation.LastRun = time.Now().Unix()
	_, err = dbmap.Update(&automation)
	if err != nil {
		ErrorLog.Println("runAutomationNowHandler last_run update err: " + err.Error())
	}

	InfoLog.Printf("automation %d ran manually: %d matched, %d succeeded, %d failed\n", automation.ID, len(matches), succeeded, failed)

	c.JSON(200, gin.H{"matched": len(matches), "succeeded": succeeded, "failed": failed})
}

func lookupAutomationByParam(c *gin.Context) (Automation, error) {
	automationID := c.Param("automationID")

	automation := Automation{}
	err := dbmap.SelectOne(&automation, "SELECT * FROM automations WHERE id = ?", automationID)
	return automation, err
}

// evaluateCondition is the pure predicate behind preview, run-now and the
// scheduler tick. A malformed row never fails the whole evaluation, it is
// just excluded.
func evaluateCondition(a Automation, row CandidateRow, now time.Time) bool {
	switch a.ConditionField {
	case CONDITION_FIELD_SCORE:
		if row.Response.Score == nil {
			return false
		}
		threshold, err := strconv.ParseInt(a.ConditionValue, 10, 64)
		if err != nil {
			return false
		}
		return compareInt(*row.Response.Score, a.ConditionOperator, threshold)
	case CONDITION_FIELD_STATUS:
		// operator is forced to equality for status rules
		return row.Response.Status == a.ConditionValue
	case CONDITION_FIELD_SUBMITTED_AT:
		days, err := strconv.Atoi(a.ConditionValue)
		if err != nil {
			return false
		}
		if row.Response.SubmittedAt == 0 {
			return false
		}

		cutoff := now.AddDate(0, 0, -days)
		submitted := time.Unix(row.Response.SubmittedAt/1000, 0)

		switch a.ConditionOperator {
		case ">":
			return submitted.After(cutoff)
		case "<":
			return submitted.Before(cutoff)
		case "=":
			return sameCalendarDay(submitted, cutoff)
		}
	}

	return false
}

func compareInt(value int64, operator string, threshold int64) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case "=":
		return value == threshold
	}
	return false
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func matchAutomationCandidates(a Automation, now time.Time) ([]CandidateRow, error) {
	rows, err := findAllCandidateRows()
	if err != nil {
		return nil, err
	}

	matches := []CandidateRow{}
	for _, row := range rows {
		if evaluateCondition(a, row, now) {
			matches = append(matches, row)
		}
	}

	return matches, nil
}
