package analyzer

import (
	"io/fs"
	"path/filepath"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// DiscoveryOptions controls which parts of the tree are skipped.
type DiscoveryOptions struct {
	ExcludeDirs      []string // directory names, matched at any depth
	IgnorePatterns   []string // globs over slash-separated relative paths
	RespectGitignore bool
}

// FileDiscovery enumerates source files under a root directory.
type FileDiscovery struct {
	rootDir        string
	excludeDirs    map[string]bool
	ignorePatterns []compiledPattern
	gitignore      *ignore.GitIgnore
}

// NewFileDiscovery creates a new file discovery instance.
func NewFileDiscovery(rootDir string, opts DiscoveryOptions) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir:     rootDir,
		excludeDirs: make(map[string]bool),
	}

	for _, name := range opts.ExcludeDirs {
		fd.excludeDirs[name] = true
	}

	for _, pattern := range opts.IgnorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.ignorePatterns = append(fd.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	if opts.RespectGitignore {
		fd.gitignore = loadGitignore(rootDir)
	}

	return fd, nil
}

// DiscoverFiles walks the directory tree in lexical order and buckets every
// source file by family. Directories that cannot be read are treated as empty.
func (fd *FileDiscovery) DiscoverFiles() (*Inventory, error) {
	inv := &Inventory{
		Python:     []string{},
		TypeScript: []string{},
		JavaScript: []string{},
	}

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == fd.rootDir {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path == fd.rootDir {
				return nil
			}
			if fd.excludeDirs[d.Name()] || fd.shouldIgnore(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		family, ok := FamilyOf(relPath)
		if !ok || fd.shouldIgnore(relPath, false) {
			return nil
		}

		switch family {
		case FamilyPython:
			inv.Python = append(inv.Python, relPath)
		case FamilyTypeScript:
			inv.TypeScript = append(inv.TypeScript, relPath)
		case FamilyJavaScript:
			inv.JavaScript = append(inv.JavaScript, relPath)
		}
		return nil
	})

	return inv, err
}

// shouldIgnore checks a relative path against the ignore globs and .gitignore.
func (fd *FileDiscovery) shouldIgnore(relPath string, isDir bool) bool {
	if fd.gitignore != nil {
		candidate := relPath
		if isDir {
			candidate += "/"
		}
		if fd.gitignore.MatchesPath(candidate) {
			return true
		}
	}

	if fd.matchesAnyPattern(relPath) {
		return true
	}

	// A directory matches "dir/**" style patterns as a whole
	return isDir && fd.matchesAnyPattern(relPath+"/**")
}

// matchesAnyPattern checks if a path matches any ignore pattern.
func (fd *FileDiscovery) matchesAnyPattern(path string) bool {
	for _, cp := range fd.ignorePatterns {
		if cp.glob.Match(path) {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
