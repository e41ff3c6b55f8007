package storage

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Fallback composes the durable backend with the in-process one.
//
// Policy:
//   - Writes try the durable backend first; on any error the write lands in
//     the in-process map for that single operation and is NOT retried or
//     reconciled later. Best-effort, not exactly-once.
//   - Reads try the durable backend first and fall through to the in-process
//     map on miss or failure.
//
// Known consistency gap: fallback writes are invisible to other process
// instances and survive only until restart. Every degradation is logged so
// operators can see when the durable store is misbehaving.
type Fallback struct {
	durable Backend // nil when the durable store is unconfigured
	memory  *Memory
	log     zerolog.Logger
}

// NewFallback builds the composed store. durable may be nil, in which case
// every operation is served by the in-process backend.
func NewFallback(durable Backend, memory *Memory, log zerolog.Logger) *Fallback {
	if memory == nil {
		memory = NewMemory()
	}
	return &Fallback{durable: durable, memory: memory, log: log}
}

// Durable reports whether a durable backend is configured at all.
func (f *Fallback) Durable() bool { return f.durable != nil }

// Memory exposes the in-process backend for diagnostics (health reporting).
func (f *Fallback) Memory() *Memory { return f.memory }

// Probe reports whether the durable backend is configured and truly
// reachable. Backends that implement Prober get a full write/read/delete
// round-trip; others fall back to a cheap read of a nonexistent key.
func (f *Fallback) Probe(ctx context.Context) bool {
	if f.durable == nil {
		return false
	}
	if p, ok := f.durable.(Prober); ok {
		if err := p.Probe(ctx); err != nil {
			f.log.Warn().Err(err).Msg("durable store probe failed")
			return false
		}
		return true
	}
	if _, err := f.durable.Get(ctx, "probe:static"); err != nil && !errors.Is(err, ErrNotFound) {
		f.log.Warn().Err(err).Msg("durable store probe failed")
		return false
	}
	return true
}

// Get returns the value under key, preferring the durable backend and
// falling through to the in-process map on miss or failure.
func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	if f.durable != nil {
		v, err := f.durable.Get(ctx, key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			f.log.Warn().Err(err).Str("key", key).Msg("durable read failed, falling back to memory")
		}
	}
	return f.memory.Get(ctx, key)
}

// Set writes value under key and reports which backend took the write
// (MethodKV or MethodMemory). A durable failure degrades to the in-process
// map; the overall operation still succeeds.
func (f *Fallback) Set(ctx context.Context, key string, value []byte) (string, error) {
	if f.durable != nil {
		if err := f.durable.Set(ctx, key, value); err == nil {
			return MethodKV, nil
		} else {
			f.log.Warn().Err(err).Str("key", key).Msg("durable write failed, falling back to memory")
		}
	}
	if err := f.memory.Set(ctx, key, value); err != nil {
		return "", err
	}
	return MethodMemory, nil
}

// Delete removes key from both backends. The in-process delete always
// succeeds; a durable failure is returned so bulk operations (purge) can
// report it per item.
func (f *Fallback) Delete(ctx context.Context, key string) error {
	_ = f.memory.Delete(ctx, key)
	if f.durable != nil {
		if err := f.durable.Delete(ctx, key); err != nil {
			f.log.Warn().Err(err).Str("key", key).Msg("durable delete failed")
			return err
		}
	}
	return nil
}

// Keys returns the union of keys with the given prefix across both
// backends. A durable enumeration failure degrades to memory-only results.
func (f *Fallback) Keys(ctx context.Context, prefix string) ([]string, error) {
	seen := map[string]struct{}{}
	var keys []string

	if f.durable != nil {
		dk, err := f.durable.Keys(ctx, prefix)
		if err != nil {
			f.log.Warn().Err(err).Str("prefix", prefix).Msg("durable key scan failed")
		} else {
			for _, k := range dk {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}

	mk, _ := f.memory.Keys(ctx, prefix)
	for _, k := range mk {
		if _, dup := seen[k]; !dup {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
