// ABOUTME: Charm KV client wrapper for recovery data storage.
// ABOUTME: Provides thread-safe initialization, key layout, and automatic cloud sync.
package charm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/recovery/internal/models"
)

const (
	// DBName is the Charm KV database holding recovery data.
	DBName    = "recovery"
	charmHost = "charm.2389.dev"

	ScorePrefix      = "score:"
	DataPointPrefix  = "datapoint:"
	AdjustmentPrefix = "adjustment:"
)

var errReadOnly = errors.New("cannot write: database is locked by another process (MCP server?)")

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
)

// KV is the part of the Charm key-value store the client uses. *kv.KV satisfies it.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
	IsReadOnly() bool
	Close() error
}

var _ KV = (*kv.KV)(nil)

type Client struct {
	kv       KV
	autoSync bool
	mu       sync.RWMutex
}

// InitClient initializes the global Charm client.
// Thread-safe; can be called multiple times.
func InitClient() (*Client, error) {
	clientOnce.Do(func() {
		// Set server before opening KV
		if err := os.Setenv("CHARM_HOST", charmHost); err != nil {
			clientErr = err
			return
		}

		db, err := kv.OpenWithDefaultsFallback(DBName)
		if err != nil {
			clientErr = err
			return
		}

		globalClient = New(db)

		// Pull remote data on startup (skip in read-only mode)
		if !db.IsReadOnly() {
			_ = db.Sync()
		}
	})

	return globalClient, clientErr
}

// New wraps an open store. Auto sync is on.
func New(store KV) *Client {
	return &Client{kv: store, autoSync: true}
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// IsReadOnly returns true if the database is open in read-only mode.
// This happens when another process (like an MCP server) holds the lock.
func (c *Client) IsReadOnly() bool {
	return c.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (c *Client) Sync() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kv.IsReadOnly() {
		return nil
	}
	return c.kv.Sync()
}

// syncIfEnabled calls Sync if autoSync is enabled.
func (c *Client) syncIfEnabled() {
	if c.autoSync && !c.kv.IsReadOnly() {
		_ = c.kv.Sync()
	}
}

// SetAutoSync enables or disables automatic sync after writes.
func (c *Client) SetAutoSync(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoSync = enabled
}

// ID returns the Charm user ID for the current account.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

// Reset wipes local data and rebuilds from Charm Cloud.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

func scoreKey(userID string, date time.Time) string {
	return ScorePrefix + userID + ":" + models.FormatDate(date)
}

func dataPointKey(userID string, date time.Time, source models.Source) string {
	return DataPointPrefix + userID + ":" + models.FormatDate(date) + ":" + string(source)
}

// adjustmentKey sorts a user's logs by creation time.
func adjustmentKey(l *models.RecoveryAdjustmentLog) string {
	return AdjustmentPrefix + l.UserID + ":" + models.FormatTimestamp(l.CreatedAt) + ":" + l.ID.String()
}

// get returns nil, nil for a missing key. Callers hold the lock.
func (c *Client) get(key string) ([]byte, error) {
	val, err := c.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// put stores a value. Callers hold the write lock.
func (c *Client) put(key string, data []byte) error {
	if c.kv.IsReadOnly() {
		return errReadOnly
	}
	if err := c.kv.Set([]byte(key), data); err != nil {
		return err
	}
	c.syncIfEnabled()
	return nil
}

// entry is a key and its stored value.
type entry struct {
	key string
	val []byte
}

// scanPrefix returns all entries whose key has the given prefix, sorted by key.
// Callers hold the lock.
func (c *Client) scanPrefix(prefix string) ([]entry, error) {
	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}

	prefixBytes := []byte(prefix)
	var matched []string
	for _, key := range keys {
		if bytes.HasPrefix(key, prefixBytes) {
			matched = append(matched, string(key))
		}
	}
	sort.Strings(matched)

	entries := make([]entry, 0, len(matched))
	for _, key := range matched {
		val, err := c.get(key)
		if err != nil {
			return nil, err
		}
		if val == nil {
			continue
		}
		entries = append(entries, entry{key: key, val: val})
	}
	return entries, nil
}

// unmarshalJSON is a helper to unmarshal JSON data.
func unmarshalJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// decodeAll unmarshals every entry, keeping only values owned by userID when it is set.
func decodeAll[T any](entries []entry, owner func(*T) string, userID string) ([]*T, error) {
	out := make([]*T, 0, len(entries))
	for _, e := range entries {
		v, err := unmarshalJSON[T](e.val)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.key, err)
		}
		if userID != "" && owner(v) != userID {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func userPrefix(prefix, userID string) string {
	return prefix + userID + ":"
}

func hasIDPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, strings.ToLower(prefix))
}
