package language

import (
	"context"
	"time"

	"github.com/tildaslashalef/chisel/internal/chunker"
	"github.com/tildaslashalef/chisel/internal/loggy"
)

// errorKind is the node type tree-sitter assigns to unparseable regions.
const errorKind = "ERROR"

// DefaultParseTimeout bounds a single grammar attempt.
const DefaultParseTimeout = 5 * time.Second

// Selector tries registered grammars against a document until one parses it
// cleanly. It implements chunker.Selector.
type Selector struct {
	registry *Registry
	timeout  time.Duration
	logger   *loggy.Logger
}

// NewSelector creates a selector over the given registry. A zero timeout
// falls back to DefaultParseTimeout; a nil logger is replaced with a no-op.
func NewSelector(registry *Registry, timeout time.Duration, logger *loggy.Logger) *Selector {
	if timeout <= 0 {
		timeout = DefaultParseTimeout
	}
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	return &Selector{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// Select walks the registry in priority order, with the extension hint's
// entry promoted to the front, and returns the first grammar that produces
// a usable tree. Each attempt runs under its own timeout; a grammar that
// hangs or errors just cedes its turn. Returns ok=false when every grammar
// fails, which callers treat as the cue to fall back to line windows.
func (s *Selector) Select(ctx context.Context, doc chunker.Document) (chunker.Selection, bool) {
	content := []byte(doc.Text)

	for _, entry := range s.registry.OrderedFor(doc.Ext) {
		if ctx.Err() != nil {
			return chunker.Selection{}, false
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		root, release, err := entry.Provider.Parse(attemptCtx, content)
		cancel()
		if err != nil {
			s.logger.Debug("grammar attempt failed",
				"language", entry.Name,
				"error", err,
			)
			continue
		}

		if !parseSucceeded(root, entry.ErrorCheck) {
			release()
			continue
		}

		return chunker.Selection{
			Root:     root,
			Language: entry.Name,
			Close:    release,
		}, true
	}

	return chunker.Selection{}, false
}

// parseSucceeded decides whether a returned tree represents a real parse.
// Where the error marker lands depends on the grammar, so each entry carries
// metadata saying which positions to inspect.
func parseSucceeded(root chunker.Node, check ErrorCheck) bool {
	if root == nil {
		return false
	}
	rootErr := root.Kind() == errorKind
	firstErr := false
	if root.ChildCount() > 0 {
		if first := root.Child(0); first != nil {
			firstErr = first.Kind() == errorKind
		}
	}

	switch check {
	case CheckRootOnly:
		return !rootErr
	case CheckFirstChildOnly:
		return !firstErr
	default:
		return !rootErr && !firstErr
	}
}
