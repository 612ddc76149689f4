package main

import (
	cron "gopkg.in/robfig/cron.v2"
)

func doNow() {
	processOnePendingSubmission()
	runAutomationTick()
}

func startCrons() {
	if env.Production {
		go doNow()
	}

	c := cron.New()

	c.AddFunc("@every 5m", func() {
		processOnePendingSubmission()
	})

	c.AddFunc("@every 10m", func() {
		runAutomationTick()
	})

	c.AddFunc("TZ=Africa/Nairobi 0 08 * * *", func() {
		sendEventReminders()
	})

	InfoLog.Println("starting crons")

	c.Start()
}
