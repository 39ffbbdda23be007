// Package snapshot persists raw API responses to local JSON files so the
// normalization stage can be re-run offline without touching the API.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"cryptoexport/logger"
)

// Cache stores one JSON file per (exchange, resource) pair under an optional
// filename prefix. There is no TTL and no invalidation: reusing a snapshot
// is an explicit caller decision.
type Cache struct {
	prefix string
	log    *logger.Log
}

func New(prefix string) *Cache {
	return &Cache{prefix: prefix, log: logger.GetLogger()}
}

// Path returns the on-disk location of a snapshot.
func (c *Cache) Path(exchange, resource string) string {
	return fmt.Sprintf("%s%s_%s.json", c.prefix, exchange, resource)
}

// Store persists v as a JSON snapshot.
func (c *Cache) Store(exchange, resource string, v interface{}) error {
	path := c.Path(exchange, resource)
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}

	c.log.WithComponent("snapshot").WithFields(logger.Fields{
		"exchange": exchange,
		"resource": resource,
		"path":     path,
		"bytes":    len(data),
	}).Info("stored snapshot")
	return nil
}

// Load reads a snapshot into v. Returns false without error when no
// snapshot exists for the key.
func (c *Cache) Load(exchange, resource string, v interface{}) (bool, error) {
	path := c.Path(exchange, resource)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	c.log.WithComponent("snapshot").WithFields(logger.Fields{
		"exchange": exchange,
		"resource": resource,
		"path":     path,
	}).Info("loaded snapshot")
	return true, nil
}
