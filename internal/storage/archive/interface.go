// Package archive writes closed signals to cold storage before they are
// removed from the live store.
package archive

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Read when nothing is stored at the path.
var ErrNotFound = errors.New("archive: object not found")

// Storage is a flat key/value blob store addressed by slash-separated paths.
type Storage interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	// List returns every path under prefix, relative to the storage root.
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and configures a backend.
type Config struct {
	Type string   `mapstructure:"type" json:"type" default:"localfs" validate:"oneof=localfs s3"`
	Path string   `mapstructure:"path" json:"path" default:"./data/archive"`
	S3   S3Config `mapstructure:"s3" json:"s3"`
}

// New builds the backend named by cfg.Type.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}
