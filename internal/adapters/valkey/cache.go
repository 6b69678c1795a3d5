package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/Andrey-Khohlov/rollermap/internal/core/ports"
)

// envelope keeps the store time next to the payload so staleness can be
// judged by the caller rather than by key expiry.
type envelope struct {
	StoredAt time.Time `json:"stored_at"`
	Payload  []byte    `json:"payload"`
}

// Cache implements ports.DatasetCache using Valkey (Redis-compatible).
type Cache struct {
	client valkey.Client
	prefix string
	// retention caps how long entries survive in Valkey; zero keeps them.
	retention time.Duration
}

// New creates a new Valkey cache client.
func New(addr, prefix string, retention time.Duration) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return NewWithClient(client, prefix, retention), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client valkey.Client, prefix string, retention time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, retention: retention}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Load retrieves the payload stored under key.
func (c *Cache) Load(ctx context.Context, key string) ([]byte, time.Time, error) {
	cmd := c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, time.Time{}, ports.ErrCacheMiss
		}
		return nil, time.Time{}, err
	}
	b, err := cmd.AsBytes()
	if err != nil {
		return nil, time.Time{}, err
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode cache entry: %w", err)
	}
	return env.Payload, env.StoredAt, nil
}

// Store saves data under key with the current time.
func (c *Cache) Store(ctx context.Context, key string, data []byte) error {
	b, err := json.Marshal(envelope{StoredAt: time.Now().UTC(), Payload: data})
	if err != nil {
		return err
	}
	set := c.client.B().Set().Key(c.key(key)).Value(valkey.BinaryString(b))
	if c.retention > 0 {
		return c.client.Do(ctx, set.Ex(c.retention).Build()).Error()
	}
	return c.client.Do(ctx, set.Build()).Error()
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
