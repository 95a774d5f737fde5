package refdict

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/patchsmith/patchsmith/pkg/cache"
)

// DefaultScanTTL bounds how long a directory scan stays cached. A Max
// installation rarely changes, so a day is a comfortable window.
const DefaultScanTTL = 24 * time.Hour

// refpageSuffix is the file suffix of Max reference pages; the
// basename before it is the object name.
const refpageSuffix = ".maxref.xml"

// Scanner widens a dictionary by scanning a Max installation.
// Scan results are memoized through the cache so repeated CLI
// invocations do not re-walk the installation tree.
//
// Scanner is stateless apart from its cache and logger; multiple
// goroutines can share one.
type Scanner struct {
	Cache  cache.Cache
	Logger *log.Logger
	TTL    time.Duration
}

// NewScanner creates a scanner. A nil cache disables memoization and a
// nil logger falls back to log.Default().
func NewScanner(c cache.Cache, logger *log.Logger) *Scanner {
	if c == nil {
		c = cache.Null{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{Cache: c, Logger: logger, TTL: DefaultScanTTL}
}

// ScanRefpages collects object names from a Max refpages directory.
// Each *.maxref.xml file documents one object; the basename is the
// object name. Names are returned sorted and deduplicated.
func (s *Scanner) ScanRefpages(ctx context.Context, dir string) ([]string, error) {
	return s.scan(ctx, "refpages", dir, func(name string) (string, bool) {
		base, ok := strings.CutSuffix(name, refpageSuffix)
		return base, ok
	})
}

// ScanPackages collects abstraction names from a Max packages
// directory. Every *.maxpat file under a package is loadable as an
// object by its basename.
func (s *Scanner) ScanPackages(ctx context.Context, dir string) ([]string, error) {
	return s.scan(ctx, "packages", dir, func(name string) (string, bool) {
		base, ok := strings.CutSuffix(name, ".maxpat")
		return base, ok
	})
}

// scan walks dir collecting names accepted by match, consulting the
// cache first. An unreadable directory is an error; unreadable entries
// inside it are skipped.
func (s *Scanner) scan(ctx context.Context, kind, dir string, match func(string) (string, bool)) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("scan %s: %w", kind, err)
	}

	key := cache.Hash([]byte(kind + ":" + dir))
	if raw, hit, err := s.Cache.Get(ctx, key); err == nil && hit {
		var names []string
		if err := json.Unmarshal(raw, &names); err == nil {
			s.Logger.Debug("dictionary scan cache hit", "kind", kind, "names", len(names))
			return names, nil
		}
	}

	start := time.Now()
	seen := make(map[string]bool)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.Logger.Debug("skipping unreadable entry", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if name, ok := match(d.Name()); ok && name != "" {
			seen[name] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", kind, err)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	s.Logger.Debug("scanned dictionary source",
		"kind", kind,
		"names", len(names),
		"duration", time.Since(start).Round(time.Millisecond))

	if raw, err := json.Marshal(names); err == nil {
		if err := s.Cache.Set(ctx, key, raw, s.TTL); err != nil {
			s.Logger.Debug("dictionary scan cache write failed", "err", err)
		}
	}
	return names, nil
}

// Load builds the working dictionary: the built-in table widened with
// the configured refpages and packages directories. Empty directory
// arguments are skipped; a missing configured directory is an error.
func (s *Scanner) Load(ctx context.Context, refpagesDir, packagesDir string) (*Dictionary, error) {
	d := Builtin()
	if refpagesDir != "" {
		names, err := s.ScanRefpages(ctx, refpagesDir)
		if err != nil {
			return nil, err
		}
		d.Merge(names)
	}
	if packagesDir != "" {
		names, err := s.ScanPackages(ctx, packagesDir)
		if err != nil {
			return nil, err
		}
		d.Merge(names)
	}
	return d, nil
}
