package storage

import (
	"context"
	"strings"
)

type prefix struct {
	inner Storage
	pre   string
}

// NewPrefix returns a view of the given Storage where every key is
// namespaced under the given prefix. Keys reports only keys inside the
// namespace, with the prefix stripped.
func NewPrefix(inner Storage, pre string) Storage {
	return &prefix{
		inner: inner,
		pre:   pre,
	}
}

func (p *prefix) Has(ctx context.Context, key string) (bool, error) {
	return p.inner.Has(ctx, p.pre+key)
}

func (p *prefix) Put(ctx context.Context, key string, content []byte) error {
	return p.inner.Put(ctx, p.pre+key, content)
}

func (p *prefix) Get(ctx context.Context, key string) ([]byte, error) {
	return p.inner.Get(ctx, p.pre+key)
}

func (p *prefix) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.pre+key)
}

func (p *prefix) Keys(ctx context.Context) ([]string, error) {
	all, err := p.inner.Keys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, p.pre) {
			keys = append(keys, strings.TrimPrefix(k, p.pre))
		}
	}
	return keys, nil
}
