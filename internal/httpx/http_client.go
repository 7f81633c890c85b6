package httpx

import (
	"net/http"
	"time"
)

const externalHTTPTimeout = 30 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: externalHTTPTimeout,
}

// ExternalHTTPClient is the shared client for outbound store calls.
func ExternalHTTPClient() *http.Client {
	return externalHTTPClient
}
