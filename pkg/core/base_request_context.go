package core

import (
	"sync"
)

// BaseRequestContext holds per-request values shared between middleware
// and handlers. Safe for concurrent use.
type BaseRequestContext struct {
	mu   sync.RWMutex
	data map[string]interface{}
}

// NewBaseRequestContext creates a new BaseRequestContext
func NewBaseRequestContext() *BaseRequestContext {
	return &BaseRequestContext{
		data: make(map[string]interface{}),
	}
}

// Set stores a value in the context
func (brc *BaseRequestContext) Set(key string, value interface{}) {
	brc.mu.Lock()
	defer brc.mu.Unlock()
	if brc.data == nil {
		brc.data = make(map[string]interface{})
	}
	brc.data[key] = value
}

// Get retrieves a value from the context
func (brc *BaseRequestContext) Get(key string) interface{} {
	brc.mu.RLock()
	defer brc.mu.RUnlock()
	return brc.data[key]
}

// Delete removes a value from the context
func (brc *BaseRequestContext) Delete(key string) {
	brc.mu.Lock()
	defer brc.mu.Unlock()
	delete(brc.data, key)
}
