package persistence

import (
	"fmt"

	get "github.com/hashicorp/go-getter"
	"go.uber.org/zap"
)

// Fetch downloads the world file at url to dst, replacing dst. Any source
// go-getter understands works (http, s3, git::, local paths).
func Fetch(url, dst string, log *zap.Logger) error {
	log.Info("fetching world", zap.String("url", url), zap.String("dst", dst))
	if err := get.GetFile(dst, url); err != nil {
		return fmt.Errorf("fetch world %s: %w", url, err)
	}
	log.Info("world fetched", zap.String("dst", dst))
	return nil
}
