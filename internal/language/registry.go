// Package language maps documents to concrete syntax trees. It holds the
// registry of tree-sitter grammars, the selector that tries them in priority
// order, and go-enry based file classification for ingestion.
package language

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	tsc "github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/dockerfile"
	"github.com/smacker/go-tree-sitter/elixir"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/hcl"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/lua"
	tsmarkdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/protobuf"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/scala"
	"github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/svelte"
	"github.com/smacker/go-tree-sitter/swift"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	tstype "github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"

	"github.com/tildaslashalef/chisel/internal/chunker"
)

// Provider turns document text into a syntax tree, or reports that the
// grammar could not parse it. The returned close func releases the tree and
// must be called exactly once when the caller is done with the nodes.
type Provider interface {
	Parse(ctx context.Context, content []byte) (chunker.Node, func(), error)
}

// ErrorCheck selects where a grammar signals parse failure in the tree it
// returns. Grammars are not consistent: some mark the root node as an error,
// others only the first child.
type ErrorCheck int

const (
	// CheckBoth inspects the root node and its first child. The default,
	// and the safe choice when a grammar's behavior is unknown.
	CheckBoth ErrorCheck = iota
	// CheckRootOnly inspects only the root node.
	CheckRootOnly
	// CheckFirstChildOnly inspects only the root's first child.
	CheckFirstChildOnly
)

// Entry is one registered language: its grammar, the file extensions that
// hint at it, and its failure-signalling metadata.
type Entry struct {
	Name       string
	Extensions []string
	Provider   Provider
	ErrorCheck ErrorCheck
}

// Registry is an ordered, immutable set of language entries. Order is
// priority: the selector tries entries front to back. Built once at startup
// and shared by reference; concurrent chunking needs no locking.
type Registry struct {
	entries []Entry
}

// NewRegistry creates a registry with the given entries in priority order.
func NewRegistry(entries ...Entry) *Registry {
	return &Registry{entries: entries}
}

// Entries returns the registered entries in priority order.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Len returns the number of registered languages.
func (r *Registry) Len() int {
	return len(r.entries)
}

// OrderedFor returns the entries with the one matching the extension hint
// moved to the front; the rest keep their relative order. An empty or
// unknown extension leaves the order untouched.
func (r *Registry) OrderedFor(ext string) []Entry {
	ext = strings.ToLower(ext)
	if ext == "" {
		return r.entries
	}
	for i, e := range r.entries {
		for _, known := range e.Extensions {
			if known == ext {
				ordered := make([]Entry, 0, len(r.entries))
				ordered = append(ordered, r.entries[i])
				ordered = append(ordered, r.entries[:i]...)
				ordered = append(ordered, r.entries[i+1:]...)
				return ordered
			}
		}
	}
	return r.entries
}

// grammar builds a registry entry backed by a tree-sitter grammar.
func grammar(name string, lang *sitter.Language, exts ...string) Entry {
	return Entry{
		Name:       name,
		Extensions: exts,
		Provider:   newTreeSitterProvider(lang),
	}
}

// DefaultRegistry returns the built-in grammar set. Specific languages come
// first; broad markup grammars (HTML, Markdown) sit last because they
// happily partially-parse almost anything and must never pre-empt a more
// specific match.
func DefaultRegistry() *Registry {
	return NewRegistry(
		grammar("Go", golang.GetLanguage(), ".go"),
		grammar("Python", python.GetLanguage(), ".py", ".pyw"),
		grammar("JavaScript", javascript.GetLanguage(), ".js", ".jsx", ".mjs", ".cjs"),
		grammar("TypeScript", tstype.GetLanguage(), ".ts", ".mts", ".cts"),
		grammar("TSX", tsx.GetLanguage(), ".tsx"),
		grammar("Rust", rust.GetLanguage(), ".rs"),
		grammar("Java", java.GetLanguage(), ".java"),
		grammar("C", tsc.GetLanguage(), ".c", ".h"),
		grammar("C++", cpp.GetLanguage(), ".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"),
		grammar("C#", csharp.GetLanguage(), ".cs"),
		grammar("Ruby", ruby.GetLanguage(), ".rb", ".rake"),
		grammar("PHP", php.GetLanguage(), ".php"),
		grammar("Kotlin", kotlin.GetLanguage(), ".kt", ".kts"),
		grammar("Swift", swift.GetLanguage(), ".swift"),
		grammar("Scala", scala.GetLanguage(), ".scala", ".sc"),
		grammar("Elixir", elixir.GetLanguage(), ".ex", ".exs"),
		grammar("Lua", lua.GetLanguage(), ".lua"),
		grammar("Shell", bash.GetLanguage(), ".sh", ".bash"),
		grammar("Protobuf", protobuf.GetLanguage(), ".proto"),
		grammar("SQL", sql.GetLanguage(), ".sql"),
		grammar("Svelte", svelte.GetLanguage(), ".svelte"),
		grammar("HCL", hcl.GetLanguage(), ".hcl", ".tf"),
		grammar("TOML", toml.GetLanguage(), ".toml"),
		grammar("YAML", yaml.GetLanguage(), ".yml", ".yaml"),
		grammar("Dockerfile", dockerfile.GetLanguage(), ".dockerfile"),
		grammar("CSS", css.GetLanguage(), ".css"),
		grammar("HTML", html.GetLanguage(), ".html", ".htm"),
		grammar("Markdown", tsmarkdown.GetLanguage(), ".md", ".markdown"),
	)
}
