package config

import (
	"time"

	"github.com/crosspost/ratelimit/internal/limiter"
	"github.com/crosspost/ratelimit/internal/routing"
)

// DefaultLimit applies to any path no routing rule claims.
var DefaultLimit = limiter.Config{
	Window:          time.Minute,
	MaxRequests:     100,
	KeyPrefix:       "rl:default:",
	StandardHeaders: true,
}

// Rules are evaluated in order; keep narrow patterns above broad ones.
var Rules = []routing.RuleSpec{
	{
		Name:    "share",
		Pattern: `^/api/share`,
		Overrides: routing.Overrides{
			Window:      time.Minute,
			MaxRequests: 10,
			KeyPrefix:   "rl:share:",
		},
	},
	{
		Name:    "status",
		Pattern: `^/api/status`,
		Overrides: routing.Overrides{
			Window:      time.Minute,
			MaxRequests: 30,
			KeyPrefix:   "rl:status:",
		},
	},
	{
		Name:    "api",
		Pattern: `^/api/`,
		Overrides: routing.Overrides{
			Window:      time.Minute,
			MaxRequests: 60,
			KeyPrefix:   "rl:api:",
		},
	},
}
