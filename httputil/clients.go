package httputil

import (
	"net/http"
	"time"
)

// Clients separates the two outbound HTTP personalities: resort pages get
// a patient client with browser-like headers applied by callers, object
// storage and other APIs get a direct one.
type Clients struct {
	Scraping *http.Client // resort pages and feeds
	API      *http.Client // object storage, direct JSON endpoints
}

func NewClients() *Clients {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4

	return &Clients{
		Scraping: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
		API: &http.Client{Timeout: 30 * time.Second},
	}
}
