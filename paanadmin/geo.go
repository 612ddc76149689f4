package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mssola/user_agent"
)

const GEO_UNKNOWN = "Unknown"

// resolveCountry prefers the CDN-provided country header and falls back to a
// best-effort IP lookup. It never fails the submission.
func resolveCountry(countryHeader, clientIP string) string {
	if countryHeader != "" && countryHeader != "XX" {
		return countryHeader
	}

	if clientIP == "" {
		return GEO_UNKNOWN
	}

	cacheKey := fmt.Sprintf("%s%s", clientIP, CACHENAME_GEO_COUNTRY)
	if cached, found := cash.Get(cacheKey); found {
		if country, isType := cached.(string); isType {
			return country
		}
	}

	country := lookupCountryByIP(clientIP)

	cash.Set(cacheKey, country, 24*time.Hour)

	return country
}

type ipAPIResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
}

var geoHTTPClient = &http.Client{Timeout: 5 * time.Second}

func lookupCountryByIP(clientIP string) string {
	resp, err := geoHTTPClient.Get("http://ip-api.com/json/" + clientIP + "?fields=status,country")
	if err != nil {
		ErrorLog.Println("lookupCountryByIP err: ", err)
		return GEO_UNKNOWN
	}
	defer resp.Body.Close()

	body := ipAPIResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		ErrorLog.Println("lookupCountryByIP decode err: ", err)
		return GEO_UNKNOWN
	}

	if body.Status != "success" || body.Country == "" {
		return GEO_UNKNOWN
	}

	return body.Country
}

func deviceDescriptor(uaHeader string) string {
	if uaHeader == "" {
		return GEO_UNKNOWN
	}

	ua := user_agent.New(uaHeader)

	browser, version := ua.Browser()
	osInfo := ua.OSInfo()

	parts := []string{}
	if browser != "" {
		if version != "" {
			parts = append(parts, browser+" "+majorVersion(version))
		} else {
			parts = append(parts, browser)
		}
	}
	if osInfo.FullName != "" {
		parts = append(parts, "on "+osInfo.FullName)
	}
	if ua.Mobile() {
		parts = append(parts, "(mobile)")
	}

	if len(parts) == 0 {
		return GEO_UNKNOWN
	}

	return strings.Join(parts, " ")
}

func majorVersion(version string) string {
	if i := strings.Index(version, "."); i > 0 {
		return version[:i]
	}
	return version
}
