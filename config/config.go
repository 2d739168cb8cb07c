package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	TLS_DOMAINS  = "" // e.g. "example.com,example2.com"
	MYSQL_DSN    = "" // MySQL will be used if this is set
	SQLITE_FILE  = "" // SQLite will be used if MYSQL_DSN is not configured and this is set
	BIND_ADDRESS = "0.0.0.0:8080"
	TMP_DIR      = "/tmp" // Used for staging cover downloads in case of S3 bucket
	COVER_DIR    = ""     // Used for creating the initial cover bucket
	DEBUG_MODE   = true
	// Identity sent with every outbound metadata/image request. Public
	// metadata APIs (Discogs, MusicBrainz) require a descriptive client
	// string with a contact address; the server refuses to start without one.
	APP_NAME    = "vinylcat"
	APP_CONTACT = ""
	// Discogs personal access token (optional - raises the rate limit)
	DISCOGS_TOKEN = ""
	// Secret for the session cookie store; sessions reset on restart when unset
	SESSION_KEY = ""
	// Requests per second allowed against the metadata provider
	PROVIDER_RATE_LIMIT = 1.0
)

func init() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("TMP_DIR", &TMP_DIR)
	readEnvString("COVER_DIR", &COVER_DIR)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("APP_NAME", &APP_NAME)
	readEnvString("APP_CONTACT", &APP_CONTACT)
	readEnvString("DISCOGS_TOKEN", &DISCOGS_TOKEN)
	readEnvString("SESSION_KEY", &SESSION_KEY)
	readEnvFloat("PROVIDER_RATE_LIMIT", &PROVIDER_RATE_LIMIT)
}

// UserAgent builds the client identity string required by metadata APIs.
// Panics when APP_CONTACT is missing - that is a deployment error, not
// something to discover on the first outbound call.
func UserAgent() string {
	if APP_CONTACT == "" {
		panic("APP_CONTACT must be configured (required by metadata provider APIs)")
	}
	return APP_NAME + "/1.0 +" + APP_CONTACT
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvFloat(name string, value *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*value = f
}
