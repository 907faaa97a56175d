package urlstrategy

import (
	"fmt"
)

// URLStrategyType represents the type of URL strategy
type URLStrategyType string

const (
	// CDN strategy for direct CDN URLs
	StrategyTypeCDN URLStrategyType = "cdn"

	// Content-based strategy for application-routed URLs
	StrategyTypeContentBased URLStrategyType = "content-based"
)

// Config holds configuration for URL strategy creation
type Config struct {
	Type       URLStrategyType
	CDNBaseURL string // For CDN strategy
	PathPrefix string // For content-based strategy
}

// NewURLStrategy creates a URL strategy based on the configuration
func NewURLStrategy(config Config) (URLStrategy, error) {
	switch config.Type {
	case StrategyTypeCDN:
		if config.CDNBaseURL == "" {
			return nil, fmt.Errorf("CDN base URL is required for CDN strategy")
		}
		return NewCDNStrategy(config.CDNBaseURL), nil

	case StrategyTypeContentBased, "":
		return NewDefaultStrategy(config.PathPrefix), nil

	default:
		return nil, fmt.Errorf("unknown URL strategy type: %s", config.Type)
	}
}

// NewDefaultStrategy creates the content-based strategy, falling back to
// DefaultPathPrefix.
func NewDefaultStrategy(pathPrefix string) URLStrategy {
	if pathPrefix == "" {
		pathPrefix = DefaultPathPrefix
	}
	return NewContentBasedStrategy(pathPrefix)
}
