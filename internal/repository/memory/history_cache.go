package memory

import (
	"time"

	"fleetquery-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// HistoryCache keeps recently loaded conversation histories in process
// memory so consecutive messages in an active conversation skip the
// database read. The database stays the source of truth; entries are
// invalidated on every append.
type HistoryCache struct {
	cache *cache.Cache
}

func NewHistoryCache() *HistoryCache {
	// Conversations idle for 30 minutes fall out; expired entries are
	// purged every 10 minutes.
	return &HistoryCache{cache: cache.New(30*time.Minute, 10*time.Minute)}
}

func (c *HistoryCache) Get(conversationId string) ([]*entity.ConversationTurn, bool) {
	if x, found := c.cache.Get(conversationId); found {
		return x.([]*entity.ConversationTurn), true
	}
	return nil, false
}

func (c *HistoryCache) Save(conversationId string, turns []*entity.ConversationTurn) {
	c.cache.Set(conversationId, turns, cache.DefaultExpiration)
}

func (c *HistoryCache) Invalidate(conversationId string) {
	c.cache.Delete(conversationId)
}
