package main

type Response struct {
	ID           int64   `db:"id, primarykey, autoincrement" json:"id"`
	CandidateID  int64   `db:"candidate_id" json:"candidate_id"`
	Answers      string  `db:"answers,size:16000" json:"answers"`
	SubmittedAt  int64   `db:"submitted_at" json:"submitted_at"`
	Country      string  `db:"country" json:"country"`
	Device       string  `db:"device" json:"device"`
	Status       string  `db:"status" json:"status"`
	Score        *int64  `db:"score" json:"score"`
	EmailSent    *bool   `db:"email_sent" json:"email_sent"`
	Processing   *bool   `db:"processing" json:"processing"`
	ProcessedAt  *int64  `db:"processed_at" json:"processed_at"`
	ErrorMessage *string `db:"error_message" json:"error_message"`
}

const (
	STATUS_PENDING     = "Pending"
	STATUS_REVIEWED    = "Reviewed"
	STATUS_ACCEPTED    = "Accepted"
	STATUS_REJECTED    = "Rejected"
	STATUS_SHORTLISTED = "Shortlisted"

	// set by the pipeline when the notification stage errs, never by operators
	STATUS_FAILED = "failed"
)

func isValidResponseStatus(status string) bool {
	switch status {
	case STATUS_PENDING, STATUS_REVIEWED, STATUS_ACCEPTED, STATUS_REJECTED, STATUS_SHORTLISTED:
		return true
	}
	return false
}

func findResponseByCandidateID(candidateID int64) (Response, error) {
	response := Response{}
	err := dbmap.SelectOne(&response, "SELECT * FROM responses WHERE candidate_id = ?", candidateID)
	return response, err
}

// CandidateRow is a candidate joined with its one response, the unit the
// automation engine evaluates.
type CandidateRow struct {
	Candidate Candidate
	Response  Response
}

func findAllCandidateRows() ([]CandidateRow, error) {
	candidates := []Candidate{}
	_, err := dbmap.Select(&candidates, "SELECT * FROM candidates")
	if err != nil {
		return nil, err
	}

	responses := []Response{}
	_, err = dbmap.Select(&responses, "SELECT * FROM responses")
	if err != nil {
		return nil, err
	}

	byCandidate := make(map[int64]Response)
	for _, response := range responses {
		byCandidate[response.CandidateID] = response
	}

	rows := []CandidateRow{}
	for _, candidate := range candidates {
		response, ok := byCandidate[candidate.ID]
		if !ok {
			continue
		}
		rows = append(rows, CandidateRow{Candidate: candidate, Response: response})
	}

	return rows, nil
}
