package agora

import (
	"context"
	"fmt"
	"strings"
)

// namespacedBackend prefixes every key with a fixed namespace.
type namespacedBackend struct {
	prefix string
	next   Backend
}

// Namespace returns a Backend storing every key of b under the given prefix, so that
// several clients can share a single backend without seeing each other's state.
func Namespace(b Backend, prefix string) Backend {
	if prefix == "" {
		return b
	}
	return &namespacedBackend{prefix: prefix, next: b}
}

func (n *namespacedBackend) Get(ctx context.Context, key string) (string, bool, error) {
	return n.next.Get(ctx, n.prefix+key)
}

func (n *namespacedBackend) Set(ctx context.Context, key string, value string) error {
	return n.next.Set(ctx, n.prefix+key, value)
}

// Keys lists the keys of the namespace, with the prefix trimmed. It fails if the wrapped
// backend can't list its keys.
func (n *namespacedBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	l, ok := n.next.(KeyLister)
	if !ok {
		return nil, fmt.Errorf("backend %T can't list keys", n.next)
	}

	keys, err := l.Keys(ctx, n.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, n.prefix)
	}
	return keys, nil
}
