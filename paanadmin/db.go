package main

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/gorp.v2"
)

const (
	ProdHost   = "127.0.0.1"
	ProdDbUser = "paanadmin"

	LocalHost   = "127.0.0.1"
	LocalDbUser = "root"

	DbName = "paanhq"
)

var dbmap *gorp.DbMap

func initDB() {
	host := LocalHost
	password := passwords.LOCAL_DB_PW
	user := LocalDbUser

	if env.Production {
		host = ProdHost
		password = passwords.PROD_DB_PW
		user = ProdDbUser
	}

	db, err := sql.Open("mysql", user+":"+password+"@tcp("+host+":3306)/"+DbName)
	if err != nil {
		panic("💥 DB OPEN FAILED: " + err.Error())
	}

	err = db.Ping()
	if err != nil {
		panic("💥 DB PING FAILED: " + err.Error())
	}

	InfoLog.Println("Connected to DB ", host)

	dbmap = &gorp.DbMap{Db: db, Dialect: gorp.MySQLDialect{Engine: "InnoDB", Encoding: "UTF8"}}

	dbmap.AddTableWithName(Candidate{}, "candidates")
	dbmap.AddTableWithName(Response{}, "responses")
	dbmap.AddTableWithName(Automation{}, "automations")
	dbmap.AddTableWithName(EmailTemplate{}, "email_templates")
	dbmap.AddTableWithName(SubmissionError{}, "submission_errors")
	dbmap.AddTableWithName(InterviewQuestion{}, "interview_questions")
	dbmap.AddTableWithName(Update{}, "updates")
	dbmap.AddTableWithName(Opportunity{}, "opportunities")
	dbmap.AddTableWithName(Event{}, "events")
	dbmap.AddTableWithName(Feedback{}, "feedback")

	err = dbmap.CreateTablesIfNotExists()
	if err != nil {
		panic("💥 DB ADD TABLES FAILED")
	}

	go runExecs()
}

func runExecs() {
	dbmap.Exec("CREATE UNIQUE INDEX emailOpeningUnique ON candidates (email, opening_id)")
	dbmap.Exec("CREATE INDEX candidateLookup ON responses (candidate_id)")
	dbmap.Exec("CREATE INDEX pendingPoll ON responses (email_sent, processing, submitted_at)")
	dbmap.Exec("CREATE INDEX pendingPollFirstPass ON responses (email_sent, processing, processed_at, submitted_at)")
	dbmap.Exec("ALTER TABLE responses MODIFY answers TEXT")
	dbmap.Exec("ALTER TABLE responses ADD COLUMN processing TINYINT(1) DEFAULT 0")
	dbmap.Exec("ALTER TABLE responses ADD COLUMN score BIGINT(20) DEFAULT NULL")
	dbmap.Exec("ALTER TABLE candidates ADD COLUMN linkedin VARCHAR(255)")
	dbmap.Exec("ALTER TABLE candidates ADD COLUMN secondary_contact VARCHAR(255)")
	dbmap.Exec("ALTER TABLE candidates ADD COLUMN tier VARCHAR(32) DEFAULT 'Free'")
	dbmap.Exec("ALTER TABLE candidates MODIFY documents TEXT")
	dbmap.Exec("ALTER TABLE automations ADD COLUMN notify_channel VARCHAR(32) DEFAULT ''")
	dbmap.Exec("ALTER TABLE automations ADD COLUMN last_run BIGINT(20) DEFAULT 0")
	dbmap.Exec("ALTER TABLE email_templates MODIFY body TEXT")
	dbmap.Exec("ALTER TABLE submission_errors MODIFY error_details TEXT")
	dbmap.Exec("ALTER TABLE interview_questions MODIFY schema_fields VARCHAR(1024)")
	dbmap.Exec("ALTER TABLE updates MODIFY body TEXT")
	dbmap.Exec("ALTER TABLE opportunities MODIFY body TEXT")
}

type PropertyMap map[string]interface{}

func (p PropertyMap) Value() (driver.Value, error) {
	j, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(j), nil
}

func (p *PropertyMap) Scan(src interface{}) error {
	if src == nil {
		*p = PropertyMap{}
		return nil
	}

	var source []byte
	switch t := src.(type) {
	case string:
		source = []byte(t)
	case []byte:
		source = t
	default:
		return errors.New("incompatible type for PropertyMap")
	}

	if len(source) == 0 {
		*p = PropertyMap{}
		return nil
	}

	m := map[string]interface{}{}
	if err := json.Unmarshal(source, &m); err != nil {
		return err
	}

	*p = m
	return nil
}
