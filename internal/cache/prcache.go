package cache

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/models"
)

// PRCache memoizes the pull requests associated with each commit. Lookups
// hit memory first, then the backing Store. An empty result is cached too:
// a commit with no pull request is a valid answer.
type PRCache struct {
	mu        sync.RWMutex
	mem       map[string][]models.PRRecord
	store     Store
	namespace string
	logger    logrus.FieldLogger
}

// NewPRCache creates a PRCache. namespace separates repositories sharing a
// store (typically "owner/repo"). A nil store keeps entries in memory only.
func NewPRCache(store Store, namespace string, logger logrus.FieldLogger) *PRCache {
	if store == nil {
		store = Nop{}
	}
	return &PRCache{
		mem:       make(map[string][]models.PRRecord),
		store:     store,
		namespace: namespace,
		logger:    logging.OrDiscard(logger),
	}
}

func (c *PRCache) key(hash string) string {
	return "prs:" + c.namespace + ":" + hash
}

// Get returns the cached pull requests for a commit hash.
func (c *PRCache) Get(hash string) ([]models.PRRecord, bool) {
	c.mu.RLock()
	prs, ok := c.mem[hash]
	c.mu.RUnlock()
	if ok {
		return clonePRs(prs), true
	}

	data, ok := c.store.Get(c.key(hash))
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal(data, &prs); err != nil {
		c.logger.WithError(err).WithField("hash", hash).Debug("dropping unreadable cached pull requests")
		_ = c.store.Invalidate(c.key(hash))
		return nil, false
	}
	if prs == nil {
		prs = []models.PRRecord{}
	}

	c.mu.Lock()
	c.mem[hash] = prs
	c.mu.Unlock()
	return clonePRs(prs), true
}

// Put records the pull requests for a commit hash. A store write failure is
// logged; the entry stays in memory.
func (c *PRCache) Put(hash string, prs []models.PRRecord) {
	prs = clonePRs(prs)
	if prs == nil {
		prs = []models.PRRecord{}
	}

	c.mu.Lock()
	c.mem[hash] = prs
	c.mu.Unlock()

	data, err := json.Marshal(prs)
	if err != nil {
		c.logger.WithError(err).Warn("encode pull requests for cache")
		return
	}
	if err := c.store.Set(c.key(hash), data); err != nil {
		c.logger.WithError(err).WithField("hash", hash).Warn("persist pull requests to cache")
	}
}

// Len returns the number of commits cached in memory.
func (c *PRCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mem)
}

func clonePRs(prs []models.PRRecord) []models.PRRecord {
	if prs == nil {
		return nil
	}
	out := make([]models.PRRecord, len(prs))
	copy(out, prs)
	return out
}
