package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// Loader parses, validates, and compiles YAML graph configurations,
// caching compiled results by a SHA-256 hash of the canonicalized YAML
// bytes and using singleflight to collapse concurrent compilations of
// the same configuration into one — directly adapted from the teacher's
// GraphLoader.load (parse -> hash -> singleflight.Do -> cache).
//
// WARNING: a cached *Compiled is shared across callers. Callers must not
// mutate its Graph (AddVertex/Connect/etc.); only evaluate it.
type Loader struct {
	registry *ActorRegistry

	cacheMu sync.RWMutex
	cache   map[string]*Compiled

	sf singleflight.Group
}

// NewLoader returns a Loader that resolves actor types through registry.
func NewLoader(registry *ActorRegistry) *Loader {
	return &Loader{
		registry: registry,
		cache:    make(map[string]*Compiled),
	}
}

// LoadFile reads, parses, and compiles the YAML graph configuration at
// path.
func (l *Loader) LoadFile(path string) (*Compiled, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph config %s: %w", path, err)
	}
	return l.Load(data)
}

// Load parses, validates, and compiles the YAML graph configuration in
// data, reusing a cached result for identical configurations.
func (l *Loader) Load(data []byte) (*Compiled, error) {
	var cfg GraphConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse graph config: %w", err)
	}

	hash, err := hashConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash graph config: %w", err)
	}

	v, err, _ := l.sf.Do(hash, func() (any, error) {
		if c, ok := l.cached(hash); ok {
			return c, nil
		}
		compiled, err := Compile(cfg, l.registry)
		if err != nil {
			return nil, err
		}
		l.store(hash, compiled)
		return compiled, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Compiled), nil
}

func (l *Loader) cached(hash string) (*Compiled, bool) {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	c, ok := l.cache[hash]
	return c, ok
}

func (l *Loader) store(hash string, c *Compiled) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	l.cache[hash] = c
}

// hashConfig hashes the re-marshaled (canonicalized) config rather than
// the raw input bytes, so two YAML documents differing only in
// whitespace or key order share a cache entry.
func hashConfig(cfg GraphConfig) (string, error) {
	canon, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
