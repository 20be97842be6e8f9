package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultPrefix namespaces every key written by the scorecard.
const DefaultPrefix = "archers-scorecard"

// Well-known keys.
const (
	KeySessions       = "sessions"
	KeyCurrentSession = "currentSession"
)

// ErrUnavailable is returned when the backend fails its availability probe.
var ErrUnavailable = errors.New("storage is not available")

// Service stores JSON values under a namespaced key prefix.
type Service struct {
	backend Backend
	prefix  string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPrefix overrides the key namespace.
func WithPrefix(prefix string) ServiceOption {
	return func(s *Service) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewService wraps a backend.
func NewService(backend Backend, opts ...ServiceOption) *Service {
	s := &Service{backend: backend, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prefix returns the key namespace.
func (s *Service) Prefix() string { return s.prefix }

func (s *Service) fullKey(key string) string {
	return s.prefix + "." + key
}

func (s *Service) ready(ctx context.Context) error {
	if s.backend == nil {
		return fmt.Errorf("%w: no backend configured", ErrUnavailable)
	}
	if err := s.backend.Probe(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Save encodes v as JSON and stores it under key.
func (s *Service) Save(ctx context.Context, key string, v any) error {
	if err := s.ready(ctx); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("save %s: encode: %w", key, err)
	}
	if err := s.backend.Set(ctx, s.fullKey(key), string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load decodes the value under key into dst. found is false when nothing is stored.
func (s *Service) Load(ctx context.Context, key string, dst any) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	raw, ok, err := s.backend.Get(ctx, s.fullKey(key))
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("load %s: decode: %w", key, err)
	}
	return true, nil
}

// Delete removes key.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.ready(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if err := s.backend.Remove(ctx, s.fullKey(key)); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Clear removes every key in the namespace and nothing else.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	keys, err := s.backend.Keys(ctx, s.prefix+".")
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	for _, key := range keys {
		if err := s.backend.Remove(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}

// Exists reports whether key holds a value. Any failure reports false.
func (s *Service) Exists(ctx context.Context, key string) bool {
	if s.ready(ctx) != nil {
		return false
	}
	_, ok, err := s.backend.Get(ctx, s.fullKey(key))
	return err == nil && ok
}

// Available reports whether the backend passes its probe.
func (s *Service) Available(ctx context.Context) bool {
	return s.ready(ctx) == nil
}
