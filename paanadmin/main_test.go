package main

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	env = &Env{}
	initLogger()
	initCache()

	os.Exit(m.Run())
}
