package router

import (
	"sync"
	"time"
)

type cooldown struct {
	until time.Time
	timer *time.Timer
}

// Cooldowns is the set of commands currently cooling down. Each entry removes
// itself when its timer fires.
type Cooldowns struct {
	mu     sync.Mutex
	active map[string]*cooldown
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{active: make(map[string]*cooldown)}
}

// TryAcquire starts a cooldown of d for key. If key is already cooling down
// nothing is re-armed and the remaining time is returned with ok false.
func (c *Cooldowns) TryAcquire(key string, d time.Duration) (remaining time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cd, exists := c.active[key]; exists {
		return time.Until(cd.until), false
	}
	cd := &cooldown{until: time.Now().Add(d)}
	cd.timer = time.AfterFunc(d, func() {
		c.mu.Lock()
		if c.active[key] == cd {
			delete(c.active, key)
		}
		c.mu.Unlock()
	})
	c.active[key] = cd
	return 0, true
}

// Stop cancels every pending timer and clears the set.
func (c *Cooldowns) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, cd := range c.active {
		cd.timer.Stop()
		delete(c.active, key)
	}
}
