package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	chromeDesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	chromeAndroidUA = "Mozilla/5.0 (Linux; Android 10; SM-G960F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/78.0.3904.96 Mobile Safari/537.36"
)

func TestDeviceDescriptorDesktop(t *testing.T) {
	descriptor := deviceDescriptor(chromeDesktopUA)

	assert.Contains(t, descriptor, "Chrome 120")
	assert.Contains(t, descriptor, "on Windows")
	assert.NotContains(t, descriptor, "(mobile)")
}

func TestDeviceDescriptorMobile(t *testing.T) {
	descriptor := deviceDescriptor(chromeAndroidUA)

	assert.Contains(t, descriptor, "Chrome 78")
	assert.Contains(t, descriptor, "(mobile)")
}

func TestDeviceDescriptorEmptyHeader(t *testing.T) {
	assert.Equal(t, GEO_UNKNOWN, deviceDescriptor(""))
}

func TestMajorVersion(t *testing.T) {
	assert.Equal(t, "120", majorVersion("120.0.0.0"))
	assert.Equal(t, "78", majorVersion("78"))
}

func TestResolveCountryPrefersHeader(t *testing.T) {
	assert.Equal(t, "KE", resolveCountry("KE", "203.0.113.9"))
}

func TestResolveCountryNoHeaderNoIP(t *testing.T) {
	assert.Equal(t, GEO_UNKNOWN, resolveCountry("", ""))
	assert.Equal(t, GEO_UNKNOWN, resolveCountry("XX", ""))
}
