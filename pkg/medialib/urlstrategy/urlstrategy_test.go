package urlstrategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentBasedStrategy(t *testing.T) {
	s := NewContentBasedStrategy("/api/uploads/")

	u, err := s.ImageURL("abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/api/uploads/abc.jpg", u)

	_, err = s.ImageURL("")
	assert.Error(t, err)

	_, err = NewContentBasedStrategy("").ImageURL("abc.jpg")
	assert.Error(t, err)
}

func TestContentBasedStrategy_EscapesFilename(t *testing.T) {
	s := NewContentBasedStrategy("/api/uploads")

	u, err := s.ImageURL("a#b.png")
	require.NoError(t, err)
	assert.Equal(t, "/api/uploads/a%23b.png", u)
}

func TestCDNStrategy(t *testing.T) {
	s := NewCDNStrategy("https://cdn.example.com/media/")

	u, err := s.ImageURL("abc.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/abc.png", u)

	_, err = NewCDNStrategy("").ImageURL("abc.png")
	assert.Error(t, err)
}

func TestNewURLStrategy(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		want      string
		expectErr bool
	}{
		{name: "default type", config: Config{}, want: "/api/uploads/f.png"},
		{name: "content based with prefix", config: Config{Type: StrategyTypeContentBased, PathPrefix: "/files"}, want: "/files/f.png"},
		{name: "cdn", config: Config{Type: StrategyTypeCDN, CDNBaseURL: "https://cdn.test"}, want: "https://cdn.test/f.png"},
		{name: "cdn without base", config: Config{Type: StrategyTypeCDN}, expectErr: true},
		{name: "unknown", config: Config{Type: "bogus"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewURLStrategy(tt.config)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			u, err := s.ImageURL("f.png")
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)
		})
	}
}
