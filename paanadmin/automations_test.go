package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func scoreRow(score *int64) CandidateRow {
	return CandidateRow{Response: Response{Score: score, Status: STATUS_PENDING}}
}

func TestEvaluateConditionScoreGreaterThan(t *testing.T) {
	rule := Automation{ConditionField: CONDITION_FIELD_SCORE, ConditionOperator: ">", ConditionValue: "100"}
	now := time.Now()

	scores := []int64{50, 120, 200}
	matched := []int64{}
	for _, s := range scores {
		if evaluateCondition(rule, scoreRow(int64Ptr(s)), now) {
			matched = append(matched, s)
		}
	}

	assert.Equal(t, []int64{120, 200}, matched)
}

func TestEvaluateConditionScoreNilNeverMatches(t *testing.T) {
	rule := Automation{ConditionField: CONDITION_FIELD_SCORE, ConditionOperator: "<", ConditionValue: "100"}

	assert.False(t, evaluateCondition(rule, scoreRow(nil), time.Now()))
}

func TestEvaluateConditionScoreBadThreshold(t *testing.T) {
	rule := Automation{ConditionField: CONDITION_FIELD_SCORE, ConditionOperator: ">", ConditionValue: "high"}

	assert.False(t, evaluateCondition(rule, scoreRow(int64Ptr(200)), time.Now()))
}

func TestEvaluateConditionStatusIsEqualityOnly(t *testing.T) {
	row := CandidateRow{Response: Response{Status: STATUS_ACCEPTED}}
	now := time.Now()

	// the stored operator is ignored for status rules
	for _, op := range []string{"=", ">", "<"} {
		rule := Automation{ConditionField: CONDITION_FIELD_STATUS, ConditionOperator: op, ConditionValue: STATUS_ACCEPTED}
		assert.True(t, evaluateCondition(rule, row, now), "operator %q", op)
	}

	rule := Automation{ConditionField: CONDITION_FIELD_STATUS, ConditionOperator: "=", ConditionValue: STATUS_REJECTED}
	assert.False(t, evaluateCondition(rule, row, now))
}

func TestEvaluateConditionSubmittedAtWindow(t *testing.T) {
	now := time.Now()

	recent := CandidateRow{Response: Response{SubmittedAt: now.AddDate(0, 0, -2).UnixMilli()}}
	old := CandidateRow{Response: Response{SubmittedAt: now.AddDate(0, 0, -30).UnixMilli()}}

	within7 := Automation{ConditionField: CONDITION_FIELD_SUBMITTED_AT, ConditionOperator: ">", ConditionValue: "7"}
	assert.True(t, evaluateCondition(within7, recent, now))
	assert.False(t, evaluateCondition(within7, old, now))

	olderThan7 := Automation{ConditionField: CONDITION_FIELD_SUBMITTED_AT, ConditionOperator: "<", ConditionValue: "7"}
	assert.False(t, evaluateCondition(olderThan7, recent, now))
	assert.True(t, evaluateCondition(olderThan7, old, now))
}

func TestEvaluateConditionSubmittedAtExactDay(t *testing.T) {
	// local noon keeps the cutoff and the submission timestamps inside one
	// calendar day regardless of when or where the test runs
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	rule := Automation{ConditionField: CONDITION_FIELD_SUBMITTED_AT, ConditionOperator: "=", ConditionValue: "7"}

	onTheDay := CandidateRow{Response: Response{SubmittedAt: now.AddDate(0, 0, -7).UnixMilli()}}
	dayBefore := CandidateRow{Response: Response{SubmittedAt: now.AddDate(0, 0, -8).UnixMilli()}}
	dayAfter := CandidateRow{Response: Response{SubmittedAt: now.AddDate(0, 0, -6).UnixMilli()}}

	assert.True(t, evaluateCondition(rule, onTheDay, now))
	assert.False(t, evaluateCondition(rule, dayBefore, now))
	assert.False(t, evaluateCondition(rule, dayAfter, now))
}

func TestEvaluateConditionSubmittedAtZeroNeverMatches(t *testing.T) {
	rule := Automation{ConditionField: CONDITION_FIELD_SUBMITTED_AT, ConditionOperator: ">", ConditionValue: "7"}

	assert.False(t, evaluateCondition(rule, CandidateRow{}, time.Now()))
}

func TestValidateAutomationForcesStatusEquality(t *testing.T) {
	input := Automation{
		ConditionField:    CONDITION_FIELD_STATUS,
		ConditionOperator: "<",
		ConditionValue:    STATUS_ACCEPTED,
		ActionType:        ACTION_TYPE_STATUS,
		ActionValue:       STATUS_REJECTED,
		ScheduleType:      SCHEDULE_TYPE_RECURRING,
		IntervalHours:     24,
	}

	assert.Equal(t, "", validateAutomation(&input))
	assert.Equal(t, "=", input.ConditionOperator)
}

func TestValidateAutomationRejectsBadSchedules(t *testing.T) {
	base := Automation{
		ConditionField:    CONDITION_FIELD_SCORE,
		ConditionOperator: ">",
		ConditionValue:    "100",
		ActionType:        ACTION_TYPE_EMAIL,
		ActionValue:       "congrats-template",
	}

	recurring := base
	recurring.ScheduleType = SCHEDULE_TYPE_RECURRING
	recurring.IntervalHours = 0
	assert.NotEqual(t, "", validateAutomation(&recurring))

	ranged := base
	ranged.ScheduleType = SCHEDULE_TYPE_RANGE
	ranged.StartDate = "2026-08-01"
	ranged.EndDate = "not-a-date"
	assert.NotEqual(t, "", validateAutomation(&ranged))
}

func TestValidateAutomationNotifyNeedsChannel(t *testing.T) {
	input := Automation{
		ConditionField:    CONDITION_FIELD_SCORE,
		ConditionOperator: ">",
		ConditionValue:    "100",
		ActionType:        ACTION_TYPE_NOTIFY,
		ActionValue:       "hot lead",
		ScheduleType:      SCHEDULE_TYPE_RECURRING,
		IntervalHours:     1,
	}

	assert.NotEqual(t, "", validateAutomation(&input))

	input.NotifyChannel = NOTIFY_CHANNEL_SLACK
	assert.Equal(t, "", validateAutomation(&input))
}

func activeRecurring(intervalHours int64, lastRun int64) Automation {
	trueV := true
	return Automation{
		Active:        &trueV,
		ScheduleType:  SCHEDULE_TYPE_RECURRING,
		IntervalHours: intervalHours,
		LastRun:       lastRun,
	}
}

func TestScheduleEligibleRecurring(t *testing.T) {
	now := time.Now()

	// never run before: eligible right away
	assert.True(t, scheduleEligible(activeRecurring(1, 0), now))

	// just ran: dormant until the interval passes
	justRan := activeRecurring(1, now.Unix())
	assert.False(t, scheduleEligible(justRan, now))
	assert.True(t, scheduleEligible(justRan, now.Add(61*time.Minute)))
}

func TestScheduleEligibleInactiveNever(t *testing.T) {
	rule := activeRecurring(1, 0)
	falseV := false
	rule.Active = &falseV

	assert.False(t, scheduleEligible(rule, time.Now()))
}

func TestScheduleEligibleRangeInclusiveDays(t *testing.T) {
	trueV := true
	now := time.Now()
	today := now.Format(SCHEDULE_DATE_FORMAT)

	rule := Automation{
		Active:       &trueV,
		ScheduleType: SCHEDULE_TYPE_RANGE,
		StartDate:    today,
		EndDate:      today,
	}

	assert.True(t, scheduleEligible(rule, now))
	assert.False(t, scheduleEligible(rule, now.AddDate(0, 0, 1)))
	assert.False(t, scheduleEligible(rule, now.AddDate(0, 0, -1)))
}

func TestRunAutomationActionsIsolatesFailures(t *testing.T) {
	rows := []CandidateRow{
		{Candidate: Candidate{ID: 1}},
		{Candidate: Candidate{ID: 2}},
		{Candidate: Candidate{ID: 3}},
	}

	acted := []int64{}
	stub := func(a Automation, row CandidateRow) error {
		acted = append(acted, row.Candidate.ID)
		if row.Candidate.ID == 2 {
			return errors.New("send failed")
		}
		return nil
	}

	succeeded, failed := runAutomationActions(Automation{ID: 9}, rows, stub)

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []int64{1, 2, 3}, acted)
}
