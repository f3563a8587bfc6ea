// internal/cache/nop.go
package cache

import (
	"context"
)

// Nop satisfies Cache when caching is disabled by configuration. Every lookup
// misses and every write is dropped, so call sites never branch on whether a
// cache exists.
type Nop struct{}

var _ Cache = Nop{}

func (Nop) GetHTML(context.Context, string) (string, bool)        { return "", false }
func (Nop) SetHTML(context.Context, string, string)               {}
func (Nop) GetResponse(context.Context, string) (string, bool)    { return "", false }
func (Nop) SetResponse(context.Context, string, string, string, string) {
}
func (Nop) GetPopupMarkup(context.Context, string) (string, bool) { return "", false }
func (Nop) SetPopupMarkup(context.Context, string, string)        {}
func (Nop) Stats(context.Context) (Stats, error)                  { return Stats{}, nil }
func (Nop) ClearExpired(context.Context) (int64, error)           { return 0, nil }
func (Nop) ClearAll(context.Context) error                        { return nil }
func (Nop) Close() error                                          { return nil }
