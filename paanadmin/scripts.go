package main

import (
	"os"
)

func runScripts() {
	runCrons := os.Getenv("CRONS")
	if runCrons == "on" {
		go startCrons()
	}

	seed := os.Getenv("SEED")
	if seed == "on" {
		seedInterviewQuestions()
		seedEmailTemplates()
	}

	testEmail := os.Getenv("TESTEMAIL")
	if testEmail != "" {
		sendTestEmail(testEmail)
	}
}
