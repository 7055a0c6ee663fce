package blob

import (
	"fmt"
	"strings"

	"myGroupBuy/business/recommendation"
	"myGroupBuy/pkg/config"
)

// Open returns the store selected by cfg.Driver.
func Open(cfg config.BlobConfig) (recommendation.BlobStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "posix":
		return NewPOSIX(cfg.Dir), nil
	case "s3":
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
