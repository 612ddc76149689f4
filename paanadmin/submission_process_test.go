package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pendingResponse(id, submittedAt int64) Response {
	falseV := false
	return Response{
		ID:          id,
		CandidateID: id,
		Answers:     `["Full Member"]`,
		SubmittedAt: submittedAt,
		Status:      STATUS_PENDING,
		EmailSent:   &falseV,
		Processing:  &falseV,
	}
}

func TestFailedRowLeavesThePoll(t *testing.T) {
	older := pendingResponse(1, 1000)
	newer := pendingResponse(2, 2000)

	assert.True(t, pollEligible(older))
	assert.True(t, pollEligible(newer))

	applyFailureState(&older, errors.New("candidate template fetch err"), 3000)

	// the failed row never comes back on its own, the newer one is next
	assert.False(t, pollEligible(older))
	assert.True(t, pollEligible(newer))
}

func TestFailedRowStaysClaimableByOperator(t *testing.T) {
	row := pendingResponse(1, 1000)
	applyFailureState(&row, errors.New("send failed"), 2000)

	assert.False(t, pollEligible(row))
	assert.True(t, claimable(row))
}

func TestCompletedRowNeitherPolledNorClaimable(t *testing.T) {
	row := pendingResponse(1, 1000)
	applyCompletionState(&row, 2000)

	assert.False(t, pollEligible(row))
	assert.False(t, claimable(row))
}

func TestInFlightRowNotClaimable(t *testing.T) {
	row := pendingResponse(1, 1000)
	trueV := true
	row.Processing = &trueV

	assert.False(t, pollEligible(row))
	assert.False(t, claimable(row))
}

func TestPollQueryMatchesPredicate(t *testing.T) {
	assert.Contains(t, oldestPendingQuery, "email_sent = 0")
	assert.Contains(t, oldestPendingQuery, "processing = 0")
	assert.Contains(t, oldestPendingQuery, "processed_at IS NULL")
	assert.Contains(t, oldestPendingQuery, "answers <> ''")
	assert.Contains(t, oldestPendingQuery, "ORDER BY submitted_at ASC LIMIT 1")
}

func TestApplyFailureState(t *testing.T) {
	row := pendingResponse(1, 1000)
	applyFailureState(&row, errors.New("smtp timeout"), 2000)

	assert.Equal(t, STATUS_FAILED, row.Status)
	assert.False(t, boolVal(row.Processing))
	assert.Equal(t, int64(2000), *row.ProcessedAt)
	assert.Equal(t, "smtp timeout", *row.ErrorMessage)
}

func TestApplyCompletionStateClearsError(t *testing.T) {
	row := pendingResponse(1, 1000)
	message := "old failure"
	row.ErrorMessage = &message

	applyCompletionState(&row, 2000)

	assert.True(t, boolVal(row.EmailSent))
	assert.False(t, boolVal(row.Processing))
	assert.Equal(t, int64(2000), *row.ProcessedAt)
	assert.Nil(t, row.ErrorMessage)
}
