package entity_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nDmitry/stackfeed/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeedParamsFromRequest(t *testing.T) {
	tests := []struct {
		name          string
		handle        string
		query         string
		expected      *entity.FeedParams
		expectedField string
	}{
		{
			name:   "Defaults",
			handle: "platformer",
			expected: &entity.FeedParams{
				Handle:    "platformer",
				Format:    entity.FormatRSS,
				PostLimit: entity.PostLimitDefault,
				CacheTTL:  entity.FeedCacheTTLDefault,
			},
		},
		{
			name:   "All parameters",
			handle: "Platformer",
			query:  "format=atom&post_limit=10&exclude=ads|%20sponsored%20||&exclude_case_sensitive=true&cache_ttl=0",
			expected: &entity.FeedParams{
				Handle:               "platformer",
				Format:               entity.FormatAtom,
				PostLimit:            10,
				ExcludeWords:         []string{"ads", "sponsored"},
				ExcludeCaseSensitive: true,
				CacheTTL:             0,
			},
		},
		{
			name:   "Cache TTL is clamped to a day",
			handle: "platformer",
			query:  "cache_ttl=9223372036854775807",
			expected: &entity.FeedParams{
				Handle:    "platformer",
				Format:    entity.FormatRSS,
				PostLimit: entity.PostLimitDefault,
				CacheTTL:  entity.FeedCacheTTLMax,
			},
		},
		{
			name:          "Unknown format",
			handle:        "platformer",
			query:         "format=json",
			expectedField: "format",
		},
		{
			name:          "Post limit too large",
			handle:        "platformer",
			query:         "post_limit=51",
			expectedField: "post_limit",
		},
		{
			name:          "Negative cache TTL",
			handle:        "platformer",
			query:         "cache_ttl=-1",
			expectedField: "cache_ttl",
		},
		{
			name:          "Cache TTL is not a number",
			handle:        "platformer",
			query:         "cache_ttl=soon",
			expectedField: "cache_ttl",
		},
		{
			name:          "Invalid handle",
			handle:        "no/slashes",
			expectedField: "handle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/publications/x/feed?"+tt.query, nil)
			req.SetPathValue("handle", tt.handle)

			params, err := entity.NewFeedParamsFromRequest(req)

			if tt.expectedField != "" {
				var cfgErr *entity.ConfigurationError
				require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
				assert.Equal(t, tt.expectedField, cfgErr.Field)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, params)
		})
	}
}
