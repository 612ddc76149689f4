package main

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validAgencyInput() SubmissionInput {
	return SubmissionInput{
		Kind:            KIND_AGENCY,
		OpeningID:       "agency-2026",
		Name:            "Jane Doe",
		Email:           "jane@example.com",
		AgencyName:      "Doe Creative",
		YearEstablished: "2015",
		Headquarters:    "Nairobi",
		Website:         "https://doecreative.example",
	}
}

func validFreelancerInput() SubmissionInput {
	return SubmissionInput{
		Kind:        KIND_FREELANCER,
		OpeningID:   "freelancer-2026",
		Name:        "Kwame Mensah",
		Email:       "kwame@example.com",
		Phone:       "+233200000000",
		Country:     "Ghana",
		Languages:   "English, Twi",
		AnswersJSON: `["Full Member"]`,
	}
}

func TestValidateSubmissionAcceptsCompleteInputs(t *testing.T) {
	assert.NoError(t, validateSubmission(validAgencyInput()))
	assert.NoError(t, validateSubmission(validFreelancerInput()))
}

func TestValidateSubmissionUnknownKind(t *testing.T) {
	input := validAgencyInput()
	input.Kind = "company"

	assert.Error(t, validateSubmission(input))
}

func TestValidateSubmissionMissingKindSpecificFields(t *testing.T) {
	agency := validAgencyInput()
	agency.Website = ""
	assert.Error(t, validateSubmission(agency))

	freelancer := validFreelancerInput()
	freelancer.Languages = ""
	assert.Error(t, validateSubmission(freelancer))

	// agency inputs never require the freelancer fields
	agencyNoPhone := validAgencyInput()
	agencyNoPhone.Phone = ""
	agencyNoPhone.Country = ""
	assert.NoError(t, validateSubmission(agencyNoPhone))
}

func TestValidateSubmissionEmailFormat(t *testing.T) {
	input := validAgencyInput()

	for _, bad := range []string{"jane", "jane@", "@example.com", "jane doe@example.com", "jane@example"} {
		input.Email = bad
		assert.Error(t, validateSubmission(input), "email %q", bad)
	}
}

func TestValidateSubmissionFreelancerNeedsAnAnswer(t *testing.T) {
	input := validFreelancerInput()

	input.AnswersJSON = ""
	assert.Error(t, validateSubmission(input))

	input.AnswersJSON = `["", "[]"]`
	assert.Error(t, validateSubmission(input))

	input.AnswersJSON = `["", "Full Member"]`
	assert.NoError(t, validateSubmission(input))
}

func TestHasAnyAnswer(t *testing.T) {
	assert.False(t, hasAnyAnswer(""))
	assert.False(t, hasAnyAnswer("not json"))
	assert.False(t, hasAnyAnswer(`[]`))
	assert.False(t, hasAnyAnswer(`["", "[]", null]`))
	assert.True(t, hasAnyAnswer(`["hello"]`))
	assert.True(t, hasAnyAnswer(`[{"customText": "x"}]`))
}

var referenceShapeRe = regexp.MustCompile(`^PAAN-[A-Z0-9]{6}$`)

func TestGenerateReferenceNumberShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ref, err := generateReferenceNumber()
		assert.NoError(t, err)
		assert.Regexp(t, referenceShapeRe, ref)
		seen[ref] = true
	}

	// 50 draws from a 36^6 space colliding down to a handful would mean
	// the generator is broken
	assert.Greater(t, len(seen), 45)
}

func TestCountryForResponsePreference(t *testing.T) {
	input := SubmissionInput{Country: "Ghana"}

	assert.Equal(t, "Kenya", countryForResponse(input, "Kenya"))
	assert.Equal(t, "Ghana", countryForResponse(input, GEO_UNKNOWN))
	assert.Equal(t, "Ghana", countryForResponse(input, ""))
	assert.Equal(t, GEO_UNKNOWN, countryForResponse(SubmissionInput{}, GEO_UNKNOWN))
}
