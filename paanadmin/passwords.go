package main

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"
)

type Passwords struct {
	ADMIN_KEY                        string `json:"admin_key"`
	PROD_DB_PW                       string `json:"prod_db_pw"`
	LOCAL_DB_PW                      string `json:"local_db_pw"`
	SG_EMAILER_PASSWORD              string `json:"sg_emailer_password"`
	NO_REPLY_EMAILER_ADDRESS         string `json:"no_reply_emailer_address"`
	AGENCY_ADMIN_EMAIL_ADDRESS       string `json:"agency_admin_email_address"`
	FREELANCER_ADMIN_EMAIL_ADDRESS   string `json:"freelancer_admin_email_address"`
	ADMIN_NOTIFICATION_EMAIL_ADDRESS string `json:"admin_notification_email_address"`
	SLACK_WEBHOOK_URL                string `json:"slack_webhook_url"`
	PUBLIC_BASE_URL                  string `json:"public_base_url"`
}

var passwords Passwords

func loadPasswords() {
	absPath := "/etc/paanadmin/config/passwords.json"
	if !env.Production {
		absPath, _ = filepath.Abs("./paanadmin/config/passwords.json")
	}

	raw, err := ioutil.ReadFile(absPath)
	if err != nil {
		ErrorLog.Println(err)
		panic("FAILED to open password json: " + err.Error())
	}

	err = json.Unmarshal(raw, &passwords)
	if err != nil {
		ErrorLog.Println(err)
		panic("FAILED Unmarshal password json: " + err.Error())
	}
}
