package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// rebindDebounce coalesces the burst of config writes an emulator
// restart produces into one session bump.
const rebindDebounce = 2 * time.Second

// SessionCoordinator owns the binding session: the period during which
// cached window-to-instance bindings are trusted. A rebind drops every
// derived cache at once, so no component keeps serving bindings from a
// world that no longer exists.
type SessionCoordinator struct {
	resolver *TargetResolver
	registry *SimulatorRegistry
	keyboard *KeyboardManager

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

func NewSessionCoordinator(resolver *TargetResolver, registry *SimulatorRegistry, keyboard *KeyboardManager) *SessionCoordinator {
	return &SessionCoordinator{
		resolver: resolver,
		registry: registry,
		keyboard: keyboard,
	}
}

// Rebind invalidates every binding-derived cache and starts a new
// session epoch. Safe to call from any goroutine.
func (s *SessionCoordinator) Rebind(reason string) {
	epoch := s.resolver.BumpSession()
	s.registry.Flush()
	s.keyboard.InvalidateAll()
	LogInfo("session").
		Str("reason", reason).
		Uint64("epoch", epoch).
		Msg("binding session rebound")
}

// WatchManagerConfig watches the console's config directory and rebinds
// when it changes. Instance create/delete/reorder all rewrite files
// there, and each of those can silently remap every index-to-window
// binding. Watching is best-effort: if the directory cannot be watched
// the coordinator still works, it just relies on liveness probes alone.
func (s *SessionCoordinator) WatchManagerConfig(dir string) error {
	if dir == "" {
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		LogWarn("session").Str("dir", dir).Msg("manager config dir not watchable, skipping rebind watcher")
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	s.watcher = w

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.watchLoop(ctx)

	LogInfo("session").Str("dir", dir).Msg("watching manager config for instance changes")
	return nil
}

func (s *SessionCoordinator) watchLoop(ctx context.Context) {
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			LogDebug("session").Str("file", name).Str("op", ev.Op.String()).Msg("manager config changed")
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(rebindDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			LogWarn("session").Err(err).Msg("config watcher error")
		case <-fire:
			s.Rebind("manager config changed")
		}
	}
}

// Close stops the watcher.
func (s *SessionCoordinator) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.watcher != nil {
		s.watcher.Close()
	}
}
