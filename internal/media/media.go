// Package media turns stored image references into URLs a client can fetch.
package media

import (
	"context"
	"strings"
)

// Resolver maps an opaque image reference to a fetchable URL. An empty
// reference resolves to an empty URL.
type Resolver interface {
	Resolve(ctx context.Context, ref string) string
}

type passthrough struct{ base string }

// Passthrough returns references unchanged, or joined onto base when base is set
// and the reference is not already absolute.
func Passthrough(base string) Resolver {
	return passthrough{base: strings.TrimRight(base, "/")}
}

func (p passthrough) Resolve(_ context.Context, ref string) string {
	if ref == "" || p.base == "" || isAbsolute(ref) {
		return ref
	}
	return p.base + "/" + strings.TrimLeft(ref, "/")
}

func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
