package embedding

import (
	"context"
	"log"
)

// Failover is a fault-tolerant gateway over two embedding providers.
// Every request goes to the primary first; on any failure the identical
// request is retried once against the secondary. If both fail, the
// secondary's error is returned. No caching, no shared mutable state,
// safe for concurrent use.
type Failover struct {
	primary   Provider
	secondary Provider
}

var _ Provider = &Failover{}

func NewFailover(primary, secondary Provider) *Failover {
	return &Failover{
		primary:   primary,
		secondary: secondary,
	}
}

func (f *Failover) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := f.primary.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}

	log.Printf("[WARN] Primary embedding provider failed, retrying with secondary: %v", err)
	return f.secondary.Embed(ctx, text)
}

// Dimensions reports the primary's vector width. The deployment must pair
// providers with matching dimensions; this value never changes at runtime.
func (f *Failover) Dimensions() int {
	return f.primary.Dimensions()
}
