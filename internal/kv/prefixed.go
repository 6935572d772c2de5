package kv

import (
	"context"
	"strings"
)

// DefaultNamespace prefixes every key the application writes.
const DefaultNamespace = "rentalBridge_"

type prefixed struct {
	inner  Store
	prefix string
}

// Prefixed returns a Store that namespaces every key of inner with prefix.
// Keys lists only keys under the prefix, with the prefix stripped.
func Prefixed(inner Store, prefix string) Store {
	if prefix == "" {
		return inner
	}
	return &prefixed{inner: inner, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}

func (p *prefixed) Keys(ctx context.Context) ([]string, error) {
	all, err := p.inner.Keys(ctx)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, k := range all {
		if rest, ok := strings.CutPrefix(k, p.prefix); ok {
			keys = append(keys, rest)
		}
	}
	return keys, nil
}

func (p *prefixed) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return p.inner.Update(ctx, p.prefix+key, fn)
}
