package main

import (
	"bytes"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gocarina/gocsv"
)

type Candidate struct {
	ID               int64       `db:"id, primarykey, autoincrement" json:"id"`
	Kind             string      `db:"kind" json:"kind"`
	Name             string      `db:"name" json:"name"`
	Email            string      `db:"email" json:"email"`
	Phone            string      `db:"phone" json:"phone"`
	LinkedIn         string      `db:"linkedin" json:"linkedin"`
	AgencyName       string      `db:"agency_name" json:"agency_name"`
	YearEstablished  string      `db:"year_established" json:"year_established"`
	Headquarters     string      `db:"headquarters" json:"headquarters"`
	Website          string      `db:"website" json:"website"`
	SecondaryContact string      `db:"secondary_contact" json:"secondary_contact"`
	Country          string      `db:"country" json:"country"`
	Languages        string      `db:"languages" json:"languages"`
	OpeningID        string      `db:"opening_id" json:"opening_id"`
	ReferenceNumber  string      `db:"reference_number" json:"reference_number"`
	Tier             string      `db:"tier" json:"tier"`
	Documents        PropertyMap `db:"documents,size:10000" json:"documents"`
	Created          int64       `db:"created" json:"created"`
}

const (
	KIND_AGENCY     = "agency"
	KIND_FREELANCER = "freelancer"

	TIER_FREE      = "Free"
	TIER_ASSOCIATE = "Associate"
	TIER_FULL      = "Full"
	TIER_GOLD      = "Gold"

	CANDIDATES_PAGE_COUNT = 25
)

var tierRanks = map[string]int{
	TIER_FREE:      0,
	TIER_ASSOCIATE: 1,
	TIER_FULL:      2,
	TIER_GOLD:      3,
}

// Question authors embed requirement text after the tier label, e.g.
// "Full - Requirement: 3+ years of operation". Only the label is stored.
var tierRequirementSuffixRe = regexp.MustCompile(` - Requirement:.*$`)

func normalizeTier(answer string) string {
	stripped := strings.TrimSpace(tierRequirementSuffixRe.ReplaceAllString(answer, ""))

	for tier := range tierRanks {
		if strings.EqualFold(stripped, tier) {
			return tier
		}
	}

	return TIER_FREE
}

type CandidateCSVRow struct {
	ReferenceNumber string `csv:"Reference"`
	Kind            string `csv:"Type"`
	Name            string `csv:"Contact Name"`
	Email           string `csv:"Email"`
	Phone           string `csv:"Phone"`
	AgencyName      string `csv:"Agency"`
	Country         string `csv:"Country"`
	OpeningID       string `csv:"Opening"`
	Tier            string `csv:"Tier"`
	Status          string `csv:"Status"`
}

func registerCandidateRoutes(router *gin.Engine) {
	router.GET("/api/candidates", getCandidatesHandler)
	router.GET("/api/candidates/export", exportCandidatesHandler)
	router.GET("/api/candidates/:candidateID", getCandidateHandler)
	router.POST("/api/candidates/:candidateID/status", updateCandidateStatusHandler)
	router.DELETE("/api/candidates/:candidateID", deleteCandidateHandler)
}

type CandidatesPage struct {
	Total      int64       `json:"total"`
	Candidates []Candidate `json:"candidates"`
}

func getCandidatesHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page := 1
	pageParam := c.Query("page")
	if pageParam != "" {
		page64, err := strconv.ParseInt(pageParam, 10, 64)
		if err != nil {
			ErrorLog.Println("page is not a number")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
			return
		}
		page = int(page64)
	}

	total, err := dbmap.SelectInt("SELECT COUNT(*) FROM candidates")
	if err != nil {
		ErrorLog.Println("getCandidatesHandler count err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	candidates := []Candidate{}
	_, err = dbmap.Select(&candidates, "SELECT * FROM candidates ORDER BY created DESC LIMIT ?, ?", (page-1)*CANDIDATES_PAGE_COUNT, CANDIDATES_PAGE_COUNT)
	if err != nil {
		ErrorLog.Println("getCandidatesHandler select err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, CandidatesPage{Total: total, Candidates: candidates})
}

func getCandidateHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidate, err := lookupCandidateByParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	response, err := findResponseByCandidateID(candidate.ID)
	if err != nil {
		ErrorLog.Println("getCandidateHandler response err: " + err.Error())
		c.JSON(200, gin.H{"candidate": candidate})
		return
	}

	c.JSON(200, gin.H{"candidate": candidate, "response": response})
}

type StatusUpdateInput struct {
	Status string `json:"status"`
}

func updateCandidateStatusHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidate, err := lookupCandidateByParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	input := StatusUpdateInput{}
	if err := c.ShouldBindWith(&input, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input is wrong format"})
		return
	}

	if !isValidResponseStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	response, err := findResponseByCandidateID(candidate.ID)
	if err != nil {
		ErrorLog.Println("updateCandidateStatusHandler response err: " + err.Error())
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	response.Status = input.Status
	_, err = dbmap.Update(&response)
	if err != nil {
		ErrorLog.Println("updateCandidateStatusHandler update err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, response)
}

// Administrative delete. The submission pipeline itself never deletes.
func deleteCandidateHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidate, err := lookupCandidateByParam(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	dbmap.Exec("DELETE FROM responses WHERE candidate_id = ?", candidate.ID)

	_, err = dbmap.Delete(&candidate)
	if err != nil {
		ErrorLog.Println("deleteCandidateHandler err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.JSON(200, gin.H{"message": "Deleted"})
}

func exportCandidatesHandler(c *gin.Context) {
	err := isAdminUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidates := []Candidate{}
	_, err = dbmap.Select(&candidates, "SELECT * FROM candidates ORDER BY created DESC")
	if err != nil {
		ErrorLog.Println("exportCandidatesHandler select err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	rows := []CandidateCSVRow{}
	for _, candidate := range candidates {
		row := CandidateCSVRow{
			ReferenceNumber: candidate.ReferenceNumber,
			Kind:            candidate.Kind,
			Name:            candidate.Name,
			Email:           candidate.Email,
			Phone:           candidate.Phone,
			AgencyName:      candidate.AgencyName,
			Country:         candidate.Country,
			OpeningID:       candidate.OpeningID,
			Tier:            candidate.Tier,
		}

		response, err := findResponseByCandidateID(candidate.ID)
		if err == nil {
			row.Status = response.Status
		}

		rows = append(rows, row)
	}

	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		ErrorLog.Println("exportCandidatesHandler csv err: " + err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occured"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=candidates.csv")
	c.Data(200, "text/csv", buf.Bytes())
}

func lookupCandidateByParam(c *gin.Context) (Candidate, error) {
	candidateID := c.Param("candidateID")
	if candidateID == "" {
		ErrorLog.Println("blank candidateID path parameter")
		return Candidate{}, errors.New("blank candidateID")
	}

	return lookupCandidateByID(candidateID)
}

func lookupCandidateByID(candidateID string) (Candidate, error) {
	candidate := Candidate{}
	err := dbmap.SelectOne(&candidate, "SELECT * FROM candidates WHERE id = ?", candidateID)
	return candidate, err
}

func lookupCandidateByEmailAndOpening(email, openingID string) (Candidate, error) {
	candidate := Candidate{}
	err := dbmap.SelectOne(&candidate, "SELECT * FROM candidates WHERE email = ? AND opening_id = ?", email, openingID)
	return candidate, err
}

func findCandidatesByTiers(tiers []string) ([]Candidate, error) {
	if len(tiers) == 0 {
		return nil, errors.New("no tiers given")
	}

	placeholders := []string{}
	args := []interface{}{}
	for _, tier := range tiers {
		if _, ok := tierRanks[tier]; !ok {
			return nil, errors.New("unknown tier: " + tier)
		}
		placeholders = append(placeholders, "?")
		args = append(args, tier)
	}

	candidates := []Candidate{}
	_, err := dbmap.Select(&candidates, "SELECT * FROM candidates WHERE tier IN ("+strings.Join(placeholders, ",")+")", args...)
	return candidates, err
}
