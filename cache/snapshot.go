package cache

import (
	"bufio"
	"container/list"
	"io"
	"os"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotConfig configures snapshot persistence.
type SnapshotConfig struct {
	Path        string // Snapshot file path
	Compress    bool   // Brotli-compress the encoded snapshot
	BrotliLevel int    // Compression level 1-11 (default 4)
	BufferSize  int    // I/O buffer size (default 1MB)
}

func (cfg *SnapshotConfig) defaults() {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1 << 20
	}
	if cfg.BrotliLevel < 1 {
		cfg.BrotliLevel = 4
	} else if cfg.BrotliLevel > 11 {
		cfg.BrotliLevel = 11
	}
}

// lruSnapshot is the wire format for LRU snapshots. Entries are ordered
// from least to most recently used so replaying them rebuilds the recency
// order.
type lruSnapshot[K comparable, V any] struct {
	Keys   []K
	Values []V
}

// ttlSnapshot is the wire format for TTL snapshots.
type ttlSnapshot[K comparable, V any] struct {
	Keys      []K
	Values    []V
	WrittenAt []int64 // Write times in Unix nanoseconds
}

// Save writes the cache contents to a snapshot file. The snapshot is
// encoded with MessagePack, optionally Brotli-compressed, and written
// atomically via a temporary file. The cache lock is held only while
// copying entries out, never during file I/O.
func (c *LRU[K, V]) Save(cfg SnapshotConfig) error {
	cfg.defaults()

	c.mu.Lock()
	snap := lruSnapshot[K, V]{
		Keys:   make([]K, 0, len(c.items)),
		Values: make([]V, 0, len(c.items)),
	}
	for elem := c.order.Back(); elem != nil; elem = elem.Prev() {
		item := elem.Value.(*lruItem[K, V])
		snap.Keys = append(snap.Keys, item.key)
		snap.Values = append(snap.Values, item.value)
	}
	c.mu.Unlock()

	return writeSnapshot(cfg, &snap)
}

// Load replaces the cache contents with the entries from a snapshot file.
// A missing file is not an error. Entries beyond capacity are dropped from
// the least recently used end.
func (c *LRU[K, V]) Load(cfg SnapshotConfig) error {
	cfg.defaults()

	var snap lruSnapshot[K, V]

	found, err := readSnapshot(cfg, &snap)
	if err != nil || !found {
		return err
	}
	if len(snap.Keys) != len(snap.Values) {
		return wrapSnapshotError("load", cfg.Path, ErrInvalidSnapshot)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = list.New()
	c.items = make(map[K]*list.Element, len(snap.Keys))

	for i := range snap.Keys {
		c.items[snap.Keys[i]] = c.order.PushFront(&lruItem[K, V]{
			key:   snap.Keys[i],
			value: snap.Values[i],
		})
		if c.order.Len() > c.capacity {
			c.evictOldest()
		}
	}

	c.cfg.size(len(c.items))

	return nil
}

// Save writes the cache contents to a snapshot file, preserving per-entry
// write times.
func (c *TTL[K, V]) Save(cfg SnapshotConfig) error {
	cfg.defaults()

	c.mu.Lock()
	snap := ttlSnapshot[K, V]{
		Keys:      make([]K, 0, len(c.items)),
		Values:    make([]V, 0, len(c.items)),
		WrittenAt: make([]int64, 0, len(c.items)),
	}
	for elem := c.order.Back(); elem != nil; elem = elem.Prev() {
		item := elem.Value.(*ttlItem[K, V])
		snap.Keys = append(snap.Keys, item.key)
		snap.Values = append(snap.Values, item.value)
		snap.WrittenAt = append(snap.WrittenAt, item.writtenAt.UnixNano())
	}
	c.mu.Unlock()

	return writeSnapshot(cfg, &snap)
}

// Load replaces the cache contents with the entries from a snapshot file.
// Entries that expired while the snapshot was at rest are dropped.
func (c *TTL[K, V]) Load(cfg SnapshotConfig) error {
	cfg.defaults()

	var snap ttlSnapshot[K, V]

	found, err := readSnapshot(cfg, &snap)
	if err != nil || !found {
		return err
	}
	if len(snap.Keys) != len(snap.Values) || len(snap.Keys) != len(snap.WrittenAt) {
		return wrapSnapshotError("load", cfg.Path, ErrInvalidSnapshot)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = list.New()
	c.items = make(map[K]*list.Element, len(snap.Keys))

	now := c.now()
	for i := range snap.Keys {
		writtenAt := time.Unix(0, snap.WrittenAt[i])
		if now.Sub(writtenAt) > c.ttl {
			continue
		}

		c.items[snap.Keys[i]] = c.order.PushFront(&ttlItem[K, V]{
			key:       snap.Keys[i],
			value:     snap.Values[i],
			writtenAt: writtenAt,
		})
		if c.order.Len() > c.capacity {
			elem := c.order.Back()
			c.order.Remove(elem)
			delete(c.items, elem.Value.(*ttlItem[K, V]).key)
		}
	}

	c.cfg.size(len(c.items))

	return nil
}

// writeSnapshot encodes v to the snapshot file with an atomic rename.
func writeSnapshot(cfg SnapshotConfig, v any) error {
	tempPath := cfg.Path + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return wrapSnapshotError("save", tempPath, err)
	}
	defer func() {
		file.Close()
		os.Remove(tempPath) // Clean up temp file in case of failure
	}()

	buffered := bufio.NewWriterSize(file, cfg.BufferSize)

	var (
		writer io.Writer = buffered
		bw     *brotli.Writer
	)
	if cfg.Compress {
		bw = brotli.NewWriterLevel(buffered, cfg.BrotliLevel)
		writer = bw
	}

	if err := msgpack.NewEncoder(writer).Encode(v); err != nil {
		return wrapSnapshotError("encode", tempPath, err)
	}

	if bw != nil {
		if err := bw.Close(); err != nil {
			return wrapSnapshotError("compress", tempPath, err)
		}
	}

	if err := buffered.Flush(); err != nil {
		return wrapSnapshotError("flush", tempPath, err)
	}

	if err := file.Sync(); err != nil {
		return wrapSnapshotError("sync", tempPath, err)
	}

	if err := file.Close(); err != nil {
		return wrapSnapshotError("close", tempPath, err)
	}

	if err := os.Rename(tempPath, cfg.Path); err != nil {
		return wrapSnapshotError("rename", cfg.Path, err)
	}

	return nil
}

// readSnapshot decodes the snapshot file into v. It reports found=false
// for a missing file.
func readSnapshot(cfg SnapshotConfig, v any) (bool, error) {
	file, err := os.Open(cfg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, wrapSnapshotError("load", cfg.Path, err)
	}
	defer file.Close()

	var reader io.Reader = bufio.NewReaderSize(file, cfg.BufferSize)
	if cfg.Compress {
		reader = brotli.NewReader(reader)
	}

	if err := msgpack.NewDecoder(reader).Decode(v); err != nil && err != io.EOF {
		return false, wrapSnapshotError("decode", cfg.Path, err)
	}

	return true, nil
}
