package core

import (
	"context"
	"sync"
)

// Watchers receive freshly composed application views after every successful
// mutation. Delivery is non-blocking with a buffer of one: a slow consumer
// sees the latest view, intermediate views are dropped.

type watcher struct {
	applicationID string
	ch            chan ApplicationView
}

type watcherSet struct {
	mu       sync.Mutex
	seq      int
	watchers map[int]*watcher
}

func newWatcherSet() *watcherSet {
	return &watcherSet{watchers: make(map[int]*watcher)}
}

// WatchApplication subscribes to recomposed views of one application. The
// returned cancel function unsubscribes and closes the channel.
func (s *Service) WatchApplication(applicationID string) (<-chan ApplicationView, func()) {
	s.watchers.mu.Lock()
	defer s.watchers.mu.Unlock()
	id := s.watchers.seq
	s.watchers.seq++
	w := &watcher{
		applicationID: applicationID,
		ch:            make(chan ApplicationView, 1),
	}
	s.watchers.watchers[id] = w

	cancel := func() {
		s.watchers.mu.Lock()
		defer s.watchers.mu.Unlock()
		if _, ok := s.watchers.watchers[id]; ok {
			delete(s.watchers.watchers, id)
			close(w.ch)
		}
	}
	return w.ch, cancel
}

// notifyWatchers recomposes and publishes views for every watched application.
// The service's own store is always fully hydrated, so composition uses the
// all-loaded state.
func (s *Service) notifyWatchers(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}
	// The lock is held across the sends so a concurrent cancel cannot close a
	// channel mid-publish. Sends never block, so the critical section is short.
	s.watchers.mu.Lock()
	defer s.watchers.mu.Unlock()
	if len(s.watchers.watchers) == 0 {
		return
	}

	state := AllLoaded()
	_ = s.store.View(ctx, func(view TransactionView) error {
		for _, w := range s.watchers.watchers {
			composed, ok := ComposeApplication(view, state, w.applicationID)
			if !ok {
				continue
			}
			// Latest wins: drain a stale buffered view before sending.
			select {
			case <-w.ch:
			default:
			}
			select {
			case w.ch <- *composed:
			default:
			}
		}
		return nil
	})
}
