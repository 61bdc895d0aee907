package cmd

import (
	"fmt"
	"strings"

	"github.com/troupe-dev/troupe/pkg/persistence"
	"github.com/troupe-dev/troupe/pkg/persistence/file"
	"github.com/troupe-dev/troupe/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"file", "redis", "rediss"}

// NewPersistence picks the persistence backend from the database URL scheme.
// Unknown schemes fall back to file-based persistence.
func NewPersistence(databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "redis", "rediss":
		p, err := redis.NewPersistence(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create redis persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
