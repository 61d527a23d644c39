package wsaa

import (
	"sync"
	"time"

	"github.com/afipcloud/go-afip-client/afip/mutex"
)

// TicketCache holds the most recent access ticket per service name. It is
// safe for concurrent use; renewal for one service is serialized through a
// per-key lock so concurrent callers never trigger two login calls for the
// same service.
type TicketCache struct {
	mu      sync.RWMutex
	tickets map[string]*Ticket
	renew   mutex.Keyed[string]
}

func NewTicketCache() *TicketCache {
	return &TicketCache{tickets: make(map[string]*Ticket)}
}

// Get returns the cached ticket for service, or nil.
func (c *TicketCache) Get(service string) *Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickets[service]
}

// Put replaces the cached ticket for its service.
func (c *TicketCache) Put(t *Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickets[t.Service] = t
}

// Evict drops the cached ticket for service, forcing renewal on next use.
func (c *TicketCache) Evict(service string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tickets, service)
}

// GetValid returns the cached ticket if it stays usable for at least margin.
func (c *TicketCache) GetValid(service string, now time.Time, margin time.Duration) *Ticket {
	if t := c.Get(service); t.ValidFor(now, margin) {
		return t
	}
	return nil
}

func (c *TicketCache) lockService(service string)   { c.renew.Lock(service) }
func (c *TicketCache) unlockService(service string) { c.renew.Unlock(service) }
