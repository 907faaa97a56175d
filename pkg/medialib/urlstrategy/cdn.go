package urlstrategy

import (
	"fmt"
	"net/url"
	"strings"
)

// CDNStrategy generates URLs that point directly at a CDN fronting the
// content directory or bucket.
type CDNStrategy struct {
	CDNBaseURL string // e.g., "https://cdn.example.com/uploads"
}

// NewCDNStrategy creates a new CDN URL strategy
func NewCDNStrategy(cdnBaseURL string) *CDNStrategy {
	cdnBaseURL = strings.TrimSuffix(cdnBaseURL, "/")
	return &CDNStrategy{
		CDNBaseURL: cdnBaseURL,
	}
}

// ImageURL returns "<cdn base>/<filename>"
func (s *CDNStrategy) ImageURL(filename string) (string, error) {
	if s.CDNBaseURL == "" {
		return "", fmt.Errorf("CDN base URL not configured")
	}
	if filename == "" {
		return "", fmt.Errorf("filename is required")
	}
	return fmt.Sprintf("%s/%s", s.CDNBaseURL, url.PathEscape(filename)), nil
}
