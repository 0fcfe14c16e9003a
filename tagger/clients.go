package tagger

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// configCache loads one aws.Config per region and reuses it across backends.
type configCache struct {
	mu      sync.RWMutex
	configs map[string]aws.Config
}

func newConfigCache() *configCache {
	return &configCache{configs: make(map[string]aws.Config)}
}

func (c *configCache) get(ctx context.Context, region string) (aws.Config, error) {
	c.mu.RLock()
	cfg, ok := c.configs[region]
	c.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config for %s: %w", region, err)
	}

	c.mu.Lock()
	if existing, ok := c.configs[region]; ok {
		cfg = existing
	} else {
		c.configs[region] = cfg
	}
	c.mu.Unlock()

	return cfg, nil
}

// clientCache lazily builds one service client per region. Concurrent first
// use may build twice; the extra client is discarded, which is wasteful but
// harmless.
type clientCache[T any] struct {
	mu      sync.RWMutex
	clients map[string]T
	build   func(ctx context.Context, region string) (T, error)
}

func newClientCache[T any](build func(ctx context.Context, region string) (T, error)) *clientCache[T] {
	return &clientCache[T]{
		clients: make(map[string]T),
		build:   build,
	}
}

func (c *clientCache[T]) get(ctx context.Context, region string) (T, error) {
	c.mu.RLock()
	client, ok := c.clients[region]
	c.mu.RUnlock()
	if ok {
		return client, nil
	}

	client, err := c.build(ctx, region)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	if existing, ok := c.clients[region]; ok {
		client = existing
	} else {
		c.clients[region] = client
	}
	c.mu.Unlock()

	return client, nil
}
