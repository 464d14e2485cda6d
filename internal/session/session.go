// Package session provides the configuration commit session: a working copy
// of the tree that handlers are run against when it is committed. One commit
// equals one sequential run of every registered handler whose owned subtree
// changed; the working tree is promoted to running only when all of them
// succeed. Commits are assumed to be serialized by the caller, there is no
// internal locking.
package session

import (
	"time"

	"github.com/google/uuid"

	"grimm.is/confplane/internal/configtree"
	"grimm.is/confplane/internal/logging"
)

// Commit is the snapshot pair a handler works from. Running is the
// previously committed tree, Candidate the proposed one. Handlers derive
// everything (including removals) from these two snapshots.
type Commit struct {
	ID        string
	Running   *configtree.Node
	Candidate *configtree.Node
}

// Changed reports whether the subtree at path differs between snapshots.
func (c *Commit) Changed(path ...string) bool {
	prev := c.Running.Get(path...)
	cur := c.Candidate.Get(path...)
	if prev == nil && cur == nil {
		return false
	}
	if prev == nil || cur == nil {
		return true
	}
	return !prev.Equal(cur)
}

// Removed returns the child names under path that the commit removes.
func (c *Commit) Removed(path ...string) []string {
	return configtree.NodeChanged(c.Running, c.Candidate, path...)
}

// Exists reports whether the path exists in the candidate tree.
func (c *Commit) Exists(path ...string) bool {
	return c.Candidate.Exists(path...)
}

// Handler is one protocol or interface commit handler. OwnedPaths lists the
// subtree prefixes the handler translates; Run executes its full pipeline
// (retrieve, verify, generate, apply) against the commit snapshots.
type Handler interface {
	Name() string
	OwnedPaths() [][]string
	Run(c *Commit) error
}

// Observer is notified of every handler run within a commit. Implemented by
// the metrics recorder and the audit store.
type Observer interface {
	HandlerResult(commitID, handler string, took time.Duration, err error)
}

// Session is a mutable working copy over a running configuration tree.
type Session struct {
	running   *configtree.Node
	working   *configtree.Node
	handlers  []Handler
	observers []Observer
	logger    *logging.Logger

	// persistPath, when set, receives the running tree after each commit.
	persistPath string
}

// Option configures a Session.
type Option func(*Session)

// WithPersistence writes the running tree to path after every commit.
func WithPersistence(path string) Option {
	return func(s *Session) { s.persistPath = path }
}

// WithObserver registers a commit observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// WithLogger sets the session logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a session over the given running tree. A nil tree starts empty.
func New(running *configtree.Node, opts ...Option) *Session {
	if running == nil {
		running = configtree.NewNode()
	}
	s := &Session{
		running: running,
		working: running.Clone(),
		logger:  logging.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a commit handler. Handlers run in registration order.
func (s *Session) Register(h Handler) {
	s.handlers = append(s.handlers, h)
}

// Set creates the given path in the working tree.
func (s *Session) Set(path ...string) {
	s.working.Set(path...)
}

// Delete removes the given path from the working tree.
func (s *Session) Delete(path ...string) {
	s.working.Delete(path...)
}

// Exists reports whether the path exists in the working tree.
func (s *Session) Exists(path ...string) bool {
	return s.working.Exists(path...)
}

// Running returns the committed tree. Callers must treat it as read-only.
func (s *Session) Running() *configtree.Node {
	return s.running
}

// Working returns the working tree. Callers must treat it as read-only.
func (s *Session) Working() *configtree.Node {
	return s.working
}

// Replace swaps the whole working tree, as when loading a saved tree from
// disk. The running tree is untouched.
func (s *Session) Replace(tree *configtree.Node) {
	s.working = tree.Clone()
}

// Discard throws away uncommitted changes.
func (s *Session) Discard() {
	s.working = s.running.Clone()
}

// Commit runs every handler whose owned subtree changed and, if all succeed,
// promotes the working tree to running. On failure the working tree is kept
// as-is so the caller can inspect or discard it; nothing is persisted.
func (s *Session) Commit() error {
	if s.working.Equal(s.running) {
		s.logger.Debug("commit with no changes, skipping")
		return nil
	}

	commit := &Commit{
		ID:        uuid.NewString(),
		Running:   s.running.Clone(),
		Candidate: s.working.Clone(),
	}

	for _, h := range s.handlers {
		if !s.ownedChanged(h, commit) {
			continue
		}
		start := time.Now()
		err := h.Run(commit)
		took := time.Since(start)
		for _, o := range s.observers {
			o.HandlerResult(commit.ID, h.Name(), took, err)
		}
		if err != nil {
			s.logger.Error("commit failed", "commit", commit.ID, "handler", h.Name(), "error", err)
			return err
		}
		s.logger.Info("handler committed", "commit", commit.ID, "handler", h.Name(), "took", took.String())
	}

	s.running = s.working.Clone()
	if s.persistPath != "" {
		if err := configtree.SaveFile(s.persistPath, s.running); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) ownedChanged(h Handler, c *Commit) bool {
	for _, path := range h.OwnedPaths() {
		if c.Changed(path...) {
			return true
		}
	}
	return false
}
