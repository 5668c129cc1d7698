// Package redis_functions ships the "auctionpipe" Redis Functions library.
// It currently registers a single function, auction_cache_put, the guard
// through which every advisory cache write goes: the cached price may only
// move up, no matter how settlement refreshes interleave.
package redis_functions

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//go:embed *.lua
var luaFS embed.FS

// LoadAll installs every embedded .lua library, replacing any previously
// loaded version. Must run before the first cache write; FCALL against an
// unloaded function fails every Put.
func LoadAll(ctx context.Context, rdb *redis.Client) error {
	entries, err := luaFS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("read embedded lua dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".lua") {
			continue
		}

		code, err := luaFS.ReadFile(e.Name())
		if err != nil {
			return fmt.Errorf("read lua %s: %w", e.Name(), err)
		}
		if err := rdb.FunctionLoadReplace(ctx, string(code)).Err(); err != nil {
			return fmt.Errorf("load lua %s: %w", e.Name(), err)
		}
		zap.L().Info("redis_function_loaded", zap.String("file", e.Name()))
	}
	return nil
}
