package cache

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

// MirrorConfig configures write-through mirroring of a TTL cache to a NATS
// JetStream KeyValue bucket. Mirrored entries let multiple processes share
// one logical cache: local misses fall through to the bucket, and writes
// are propagated to it.
type MirrorConfig struct {
	URL     string        // NATS server URL
	Bucket  string        // KeyValue bucket name, created if missing
	Timeout time.Duration // Connect timeout (default 5s)
}

// mirror holds the NATS connection shared by mirrored operations. The
// encode/decode of values happens in the generic TTL methods; the mirror
// itself only moves bytes.
type mirror struct {
	nc *nats.Conn
	kv nats.KeyValue
}

// mirrorPayload is the wire format for mirrored entries.
type mirrorPayload[V any] struct {
	Value     V
	WrittenAt int64 // Write time in Unix nanoseconds
}

// EnableMirror connects the cache to a NATS JetStream KeyValue bucket. The
// bucket is created with the cache's TTL if it does not exist yet. Mirror
// traffic never runs under the cache lock.
func (c *TTL[K, V]) EnableMirror(cfg MirrorConfig) error {
	if cfg.URL == "" || cfg.Bucket == "" {
		return ErrMirrorNotConfigured
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Timeout(cfg.Timeout),
		nats.PingInterval(time.Second),
		nats.MaxPingsOutstanding(3),
	)
	if err != nil {
		return fmt.Errorf("error connecting to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("error getting JetStream context: %w", err)
	}

	kv, err := js.KeyValue(cfg.Bucket)
	if err != nil && errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:  cfg.Bucket,
			Storage: nats.FileStorage,
			TTL:     c.ttl,
		})
		if err != nil {
			nc.Close()
			return fmt.Errorf("create NATS KV: %w", err)
		}
	} else if err != nil {
		nc.Close()
		return fmt.Errorf("error getting NATS KV: %w", err)
	}

	c.mirror = &mirror{nc: nc, kv: kv}

	return nil
}

// mirrorPut propagates a write to the KV bucket. Errors are dropped: the
// mirror is best-effort and the local cache is the source of truth.
func (c *TTL[K, V]) mirrorPut(key K, value V, writtenAt time.Time) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(mirrorPayload[V]{
		Value:     value,
		WrittenAt: writtenAt.UnixNano(),
	}); err != nil {
		return
	}

	c.mirror.kv.Put(mirrorKey(key), buf.Bytes()) //nolint:errcheck
}

// mirrorGet fetches a key from the KV bucket after a local miss. A live
// mirrored entry is installed locally with its original write time.
func (c *TTL[K, V]) mirrorGet(key K) (V, bool) {
	entry, err := c.mirror.kv.Get(mirrorKey(key))
	if err != nil {
		return *new(V), false
	}

	var payload mirrorPayload[V]
	if err := msgpack.NewDecoder(bytes.NewReader(entry.Value())).Decode(&payload); err != nil {
		return *new(V), false
	}

	writtenAt := time.Unix(0, payload.WrittenAt)
	if c.now().Sub(writtenAt) > c.ttl {
		return *new(V), false
	}

	c.storeLocal(key, payload.Value, writtenAt)

	return payload.Value, true
}

// storeLocal installs a mirrored entry without re-stamping its write time
// and without echoing it back to the mirror.
func (c *TTL[K, V]) storeLocal(key K, value V, writtenAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		item := elem.Value.(*ttlItem[K, V])
		item.value = value
		item.writtenAt = writtenAt
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&ttlItem[K, V]{
		key:       key,
		value:     value,
		writtenAt: writtenAt,
	})

	if c.order.Len() > c.capacity {
		elem := c.order.Back()
		c.order.Remove(elem)
		delete(c.items, elem.Value.(*ttlItem[K, V]).key)
		c.stats.evictions++
		c.cfg.eviction()
	}

	c.cfg.size(len(c.items))
}

// mirrorKey renders a cache key as a NATS KV key.
func mirrorKey(key any) string {
	return fmt.Sprintf("%v", key)
}

func (m *mirror) close() error {
	m.nc.Close()
	return nil
}
