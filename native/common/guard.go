package common

import (
	"errors"
	"sync"
)

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a native module is administratively paused.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused when the module is paused. A nil view or
// empty module name means no pause discipline applies.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// PauseSet is a concurrency-safe PauseView with toggles, used by the daemon
// to halt individual engines without restarting.
type PauseSet struct {
	mu     sync.RWMutex
	paused map[string]bool
}

func NewPauseSet(modules ...string) *PauseSet {
	set := &PauseSet{paused: make(map[string]bool)}
	for _, module := range modules {
		set.paused[module] = true
	}
	return set
}

func (p *PauseSet) IsPaused(module string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused[module]
}

func (p *PauseSet) Pause(module string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused[module] = true
}

func (p *PauseSet) Resume(module string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.paused, module)
}
