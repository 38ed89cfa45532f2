package denly

import (
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// CompressConfig configures the Compress middleware.
type CompressConfig struct {
	Level   int      `json:"level" yaml:"level" mapstructure:"level"`     // gzip level (1-9, default: 5)
	MinSize int      `json:"minSize" yaml:"minSize" mapstructure:"minSize"` // minimum response size to compress (default: 1024)
	Types   []string `json:"types" yaml:"types" mapstructure:"types"`       // content types to compress (default: all)
}

// Compress returns middleware that gzip-compresses responses for clients
// that accept it.
func Compress(cfg ...CompressConfig) (Middleware, error) {
	c := CompressConfig{
		Level:   5,
		MinSize: 1024,
	}
	if len(cfg) > 0 {
		if cfg[0].Level > 0 {
			c.Level = cfg[0].Level
		}
		if cfg[0].MinSize > 0 {
			c.MinSize = cfg[0].MinSize
		}
		c.Types = cfg[0].Types
	}

	var (
		wrap func(http.Handler) http.HandlerFunc
		err  error
	)
	if len(c.Types) > 0 {
		wrap, err = gzhttp.NewWrapper(
			gzhttp.CompressionLevel(c.Level),
			gzhttp.MinSize(c.MinSize),
			gzhttp.ContentTypes(c.Types),
		)
	} else {
		wrap, err = gzhttp.NewWrapper(
			gzhttp.CompressionLevel(c.Level),
			gzhttp.MinSize(c.MinSize),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return wrap(next)
	}, nil
}
