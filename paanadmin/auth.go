package main

import (
	"crypto/subtle"
	"errors"

	"github.com/gin-gonic/gin"
)

func isAdminUser(c *gin.Context) error {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return errors.New("Not authorized")
	}

	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(passwords.ADMIN_KEY)) != 1 {
		return errors.New("Not authorized")
	}

	return nil
}
