package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"switchboard-hq/switchboard/pkg/apic/ast"
	"switchboard-hq/switchboard/pkg/apic/parser"
)

// LoaderConfig contains configuration for the definition loader.
type LoaderConfig struct {
	// MaxFileSize is the maximum file size in bytes (default: 10MB)
	MaxFileSize int64

	// Extensions restricts loading to these file extensions. Empty means
	// every regular file is attempted (default).
	Extensions []string

	// FollowSymlinks controls whether symbolic links are loaded (default: true)
	FollowSymlinks bool

	// SkipHidden skips dot files and directories (default: false)
	SkipHidden bool
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxFileSize:    10 * 1024 * 1024,
		FollowSymlinks: true,
	}
}

// LoadResult is the outcome of loading a directory.
type LoadResult struct {
	Definitions []*ast.Definition
	Warnings    []parser.Warning

	// Version is a digest of every loaded file's path and contents.
	Version string

	FileCount int
}

// Loader reads API definitions from the file system.
type Loader struct {
	config *LoaderConfig
	parser *parser.Parser
	logger *slog.Logger
}

// NewLoader creates a loader. Nil arguments select defaults.
func NewLoader(config *LoaderConfig, p *parser.Parser, logger *slog.Logger) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	if p == nil {
		p = parser.NewParser().WithMaxFileSize(config.MaxFileSize)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{config: config, parser: p, logger: logger}
}

// LoadFile reads and parses a single definition file.
func (l *Loader) LoadFile(path string) (*ast.Definition, []parser.Warning, error) {
	def, warnings, _, err := l.loadFile(path)
	return def, warnings, err
}

func (l *Loader) loadFile(path string) (*ast.Definition, []parser.Warning, []byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		msg := "failed to access file"
		switch {
		case os.IsNotExist(err):
			msg = "file not found"
		case os.IsPermission(err):
			msg = "permission denied"
		}
		return nil, nil, nil, &LoadError{FilePath: path, Message: msg, Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, nil, nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > l.config.MaxFileSize {
		return nil, nil, nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}

	res, err := l.parser.ParseBytesWithWarnings(data, path)
	if err != nil {
		return nil, nil, nil, &ParseError{FilePath: path, Cause: err}
	}
	for _, w := range res.Warnings {
		l.logger.Warn("definition warning", "file", path, "path", w.Path, "message", w.Message)
	}
	return res.Definition, res.Warnings, data, nil
}

// LoadDirectory loads every definition under dir in lexical path order. It
// stops at the first file that cannot be read or parsed and then returns no
// definitions at all.
func (l *Loader) LoadDirectory(dir string) ([]*ast.Definition, error) {
	res, err := l.Load(dir)
	if err != nil {
		return nil, err
	}
	return res.Definitions, nil
}

// Load is LoadDirectory with warnings and a content version.
func (l *Loader) Load(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: dir, Message: "directory not found", Cause: err}
		}
		return nil, &LoadError{FilePath: dir, Message: "failed to access directory", Cause: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{FilePath: dir, Message: "not a directory"}
	}

	files, err := l.collectFiles(dir)
	if err != nil {
		return nil, err
	}

	res := &LoadResult{FileCount: len(files)}
	digest := sha256.New()
	for _, path := range files {
		def, warnings, data, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}
		res.Definitions = append(res.Definitions, def)
		res.Warnings = append(res.Warnings, warnings...)
		digest.Write([]byte(path))
		digest.Write(data)
	}
	res.Version = hex.EncodeToString(digest.Sum(nil))[:16]

	l.logger.Info("definitions loaded", "dir", dir, "count", len(res.Definitions), "version", res.Version)
	return res, nil
}

// Files lists the files Load would read from dir, in load order.
func (l *Loader) Files(dir string) ([]string, error) {
	return l.collectFiles(dir)
}

// collectFiles lists candidate files under dir, sorted.
func (l *Loader) collectFiles(dir string) ([]string, error) {
	var files []string
	visited := make(map[string]bool)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if l.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !l.config.FollowSymlinks {
				return nil
			}
			real, err := filepath.EvalSymlinks(path)
			if err != nil {
				return &LoadError{FilePath: path, Message: "failed to resolve symlink", Cause: err}
			}
			if visited[real] {
				return nil
			}
			visited[real] = true
		} else if !d.Type().IsRegular() {
			return nil
		}

		if !l.hasValidExtension(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, &LoadError{FilePath: dir, Message: "failed to walk directory", Cause: err}
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) hasValidExtension(path string) bool {
	if len(l.config.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range l.config.Extensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}
