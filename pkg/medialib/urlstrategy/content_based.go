package urlstrategy

import (
	"fmt"
	"net/url"
	"strings"
)

// ContentBasedStrategy generates URLs that route through the application's
// own file-serving endpoint.
type ContentBasedStrategy struct {
	PathPrefix string // e.g., "/api/uploads" or "https://api.example.com/api/uploads"
}

// NewContentBasedStrategy creates a new content-based URL strategy
func NewContentBasedStrategy(pathPrefix string) *ContentBasedStrategy {
	pathPrefix = strings.TrimSuffix(pathPrefix, "/")
	return &ContentBasedStrategy{
		PathPrefix: pathPrefix,
	}
}

// ImageURL returns "<prefix>/<filename>"
func (s *ContentBasedStrategy) ImageURL(filename string) (string, error) {
	if s.PathPrefix == "" {
		return "", fmt.Errorf("path prefix not configured")
	}
	if filename == "" {
		return "", fmt.Errorf("filename is required")
	}
	return fmt.Sprintf("%s/%s", s.PathPrefix, url.PathEscape(filename)), nil
}
