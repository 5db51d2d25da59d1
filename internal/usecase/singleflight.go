package usecase

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// creationGuard deduplicates prospect creation per funnel session. The
// funnel UI can fire its "ensure a prospect exists" logic more than once
// during a single navigation; singleflight collapses the concurrent calls
// and the memo map makes a success sticky for the rest of the session.
// Cleared only by an explicit session reset.
type creationGuard struct {
	mu   sync.Mutex
	byID map[string]string // session id -> prospect id
	g    singleflight.Group
}

func newCreationGuard() *creationGuard {
	return &creationGuard{byID: make(map[string]string)}
}

type creationResult struct {
	prospectID string
	created    bool
}

func (c *creationGuard) Do(sessionID string, create func() (string, bool, error)) (string, bool, error) {
	c.mu.Lock()
	if id, ok := c.byID[sessionID]; ok {
		c.mu.Unlock()
		return id, false, nil
	}
	c.mu.Unlock()

	v, err, _ := c.g.Do(sessionID, func() (interface{}, error) {
		id, created, err := create()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.byID[sessionID] = id
		c.mu.Unlock()
		return creationResult{prospectID: id, created: created}, nil
	})
	if err != nil {
		return "", false, err
	}
	res := v.(creationResult)
	return res.prospectID, res.created, nil
}

func (c *creationGuard) Reset(sessionID string) {
	c.mu.Lock()
	delete(c.byID, sessionID)
	c.mu.Unlock()
	c.g.Forget(sessionID)
}
