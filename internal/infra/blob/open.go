// Package blob selects a concrete blob store driver.
package blob

import (
	"context"
	"fmt"

	"usersapi/internal/infra/blob/core"
	"usersapi/internal/infra/blob/fs"
	"usersapi/internal/infra/blob/memory"
	"usersapi/internal/infra/blob/s3"
)

// Config selects and parameterises a blob driver.
type Config struct {
	Driver core.Driver
	FSRoot string
	S3     s3.Config
}

// Open returns the blob store named by cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = core.DriverFilesystem
	}
	switch driver {
	case core.DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case core.DriverS3:
		return s3.New(ctx, cfg.S3)
	case core.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
