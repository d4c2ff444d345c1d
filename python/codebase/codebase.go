// Package codebase maintains parsed scope trees for a directory of Python
// files and answers position queries against them. It is the glue between
// the single-file parser and long-running consumers such as the language
// server: files come and go, trees are cached by modification time, and all
// access is safe for concurrent readers.
package codebase

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/LH183523/jedi/python/parser"
)

type Codebase struct {
	mu      sync.RWMutex
	rootDir string
	config  *Config
	files   map[string]*FileInfo
	cache   *Cache
	log     commonlog.Logger
}

// FileInfo is one parsed file. Tree is never nil: parsing cannot fail, a
// broken file just yields a sparser tree.
type FileInfo struct {
	Path    string
	Content []byte
	Tree    *parser.Scope
}

func New(rootDir string, config *Config) *Codebase {
	if config == nil {
		config = DefaultConfig()
	}
	return &Codebase{
		rootDir: rootDir,
		config:  config,
		files:   make(map[string]*FileInfo),
		cache:   NewCache(config.CacheDir),
		log:     commonlog.GetLogger("jedi.codebase"),
	}
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

func (c *Codebase) Config() *Config {
	return c.config
}

// ScanAll walks the root directory and parses every Python file, skipping
// hidden directories and the configured ignore list.
func (c *Codebase) ScanAll() error {
	return filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if c.skipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".py" {
			c.ScanFile(path)
		}
		return nil
	})
}

func (c *Codebase) skipDir(name string) bool {
	if name != "." && strings.HasPrefix(name, ".") {
		return true
	}
	for _, ignore := range c.config.Ignore {
		if name == ignore {
			return true
		}
	}
	return false
}

// ScanFile parses path from disk, reusing the cached tree when the file has
// not changed since it was last parsed.
func (c *Codebase) ScanFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if cached := c.cache.Lookup(path, info.ModTime()); cached != nil {
		c.mu.Lock()
		c.files[path] = cached
		c.mu.Unlock()
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.update(path, content)
	c.cache.Store(path, info.ModTime(), c.GetFile(path))
	return nil
}

// UpdateFile replaces the content of path with an in-memory buffer, for
// editors that push unsaved text. The cache is bypassed since there is no
// on-disk state to validate against.
func (c *Codebase) UpdateFile(path string, content []byte) {
	c.update(path, content)
	c.cache.Invalidate(path)
}

func (c *Codebase) update(path string, content []byte) {
	res := parser.Parse(content, parser.WithFile(path))
	c.log.Debugf("parsed %s (%d bytes)", path, len(content))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = &FileInfo{
		Path:    path,
		Content: content,
		Tree:    res.Module,
	}
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	delete(c.files, path)
	c.mu.Unlock()
	c.cache.Invalidate(path)
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[path]
}

func (c *Codebase) Files() []*FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	files := make([]*FileInfo, 0, len(c.files))
	for _, f := range c.files {
		files = append(files, f)
	}
	return files
}

// ScopeAt returns the innermost scope open at the given 1-based line of
// path, or nil when the file is unknown.
func (c *Codebase) ScopeAt(path string, line int) parser.ScopeNode {
	c.mu.RLock()
	f := c.files[path]
	c.mu.RUnlock()
	if f == nil {
		return nil
	}

	res := parser.Parse(f.Content, parser.WithFile(path), parser.WithLine(line))
	if res.UserScope == nil {
		return res.Module
	}
	return res.UserScope
}

// CompletionsAt lists the names visible at a line of path: everything the
// innermost scope and its ancestors introduce. The caller gets them in
// inside-out order, closest scope first.
func (c *Codebase) CompletionsAt(path string, line int) []CompletionItem {
	scope := c.ScopeAt(path, line)
	if scope == nil {
		return nil
	}

	var items []CompletionItem
	seen := make(map[string]bool)
	for node := scope; node != nil; node = node.Record().Parent {
		for _, name := range node.DefinedNames() {
			label := name.String()
			if seen[label] {
				continue
			}
			seen[label] = true
			items = append(items, CompletionItem{
				Label: label,
				Kind:  completionKind(node, name),
				Line:  name.StartLine,
			})
		}
	}
	return items
}

func completionKind(scope parser.ScopeNode, name *parser.Name) CompletionKind {
	for _, sub := range scope.Base().Subscopes {
		switch n := sub.(type) {
		case *parser.Class:
			if n.Name == name {
				return CompletionKindClass
			}
		case *parser.Function:
			if n.Name == name {
				return CompletionKindFunction
			}
		}
	}
	for _, imp := range scope.Base().Imports {
		for _, in := range imp.Names() {
			if in == name {
				return CompletionKindModule
			}
		}
	}
	return CompletionKindVariable
}

type CompletionKind int

const (
	CompletionKindVariable CompletionKind = iota
	CompletionKindFunction
	CompletionKindClass
	CompletionKindModule
)

type CompletionItem struct {
	Label string
	Kind  CompletionKind
	Line  int
}

// Stats summarizes what the codebase currently holds.
type Stats struct {
	Files     int
	Classes   int
	Functions int
	Imports   int
}

func (c *Codebase) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var s Stats
	for _, f := range c.files {
		s.Files++
		countScope(f.Tree, &s)
	}
	return s
}

// countScope descends subscopes and flow bodies alike; a def nested in an
// if statement hangs off the flow's scope, not the enclosing function's.
func countScope(scope *parser.Scope, s *Stats) {
	s.Imports += len(scope.Imports)
	for _, sub := range scope.Subscopes {
		switch sub.(type) {
		case *parser.Class:
			s.Classes++
		case *parser.Function:
			s.Functions++
		}
		countScope(sub.Base(), s)
	}
	for _, stmt := range scope.Statements {
		for flow, _ := stmt.(*parser.Flow); flow != nil; flow = flow.Next {
			countScope(&flow.Scope, s)
		}
	}
}
