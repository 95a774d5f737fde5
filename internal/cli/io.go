package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/patchsmith/patchsmith/pkg/cache"
	"github.com/patchsmith/patchsmith/pkg/check"
	"github.com/patchsmith/patchsmith/pkg/config"
	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
	"github.com/patchsmith/patchsmith/pkg/maxpat"
	"github.com/patchsmith/patchsmith/pkg/patch"
	"github.com/patchsmith/patchsmith/pkg/refdict"
)

// cacheDir returns the directory for cached dictionary scans,
// honoring XDG_CACHE_HOME when set.
func cacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// loadPatch loads a patch from disk with consistent error semantics:
// a missing or non-regular input is a usage error, an unparseable one
// a validation error.
func loadPatch(path string) (*patch.Patch, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, pserrors.New(pserrors.ErrCodeBadPath, "input patch not found: %s", path)
	}
	if err != nil {
		return nil, pserrors.Wrap(pserrors.ErrCodeBadPath, err, "cannot read input patch %s", path)
	}
	if info.IsDir() {
		return nil, pserrors.New(pserrors.ErrCodeBadPath, "input patch must be a file: %s", path)
	}

	p, err := maxpat.ReadFile(path)
	if err != nil {
		return nil, pserrors.Wrap(pserrors.ErrCodeBadDocument, err, "failed to load patch %q", path)
	}
	return p, nil
}

// savePatch writes a patch to disk, creating parent directories.
func savePatch(p *patch.Patch, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pserrors.Wrap(pserrors.ErrCodeBadDocument, err, "failed to save patch %q", path)
		}
	}
	if err := maxpat.WriteFile(p, path); err != nil {
		return pserrors.Wrap(pserrors.ErrCodeBadDocument, err, "failed to save patch %q", path)
	}
	return nil
}

// resolveOutputPath applies the output path policy shared by all
// mutating commands: an explicit --out wins, --in-place falls back to
// the input path, and anything else is a usage error.
func resolveOutputPath(inputPath, outputPath string, inPlace bool) (string, error) {
	if outputPath != "" {
		return outputPath, nil
	}
	if inputPath != "" && inPlace {
		return inputPath, nil
	}
	if inputPath != "" {
		return "", pserrors.New(pserrors.ErrCodeUsage, "missing --out (or pass --in-place to overwrite --in)")
	}
	return "", pserrors.New(pserrors.ErrCodeUsage, "missing required --out")
}

// parsePoint parses a point string formatted as "x,y".
func parsePoint(text string) ([2]float64, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return [2]float64{}, pserrors.New(pserrors.ErrCodeUsage, "point %q must be formatted as x,y", text)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return [2]float64{}, pserrors.New(pserrors.ErrCodeUsage, "point %q must contain numeric x,y values", text)
	}
	return [2]float64{x, y}, nil
}

func parsePoints(values []string) ([][2]float64, error) {
	points := make([][2]float64, len(values))
	for i, value := range values {
		pt, err := parsePoint(value)
		if err != nil {
			return nil, err
		}
		points[i] = pt
	}
	return points, nil
}

// parseAttrPairs parses key=value items into a preserved-field bag.
// Values are typed like the original box attributes: true/false become
// booleans, numerics numbers, everything else strings.
func parseAttrPairs(items []string) (patch.Extra, error) {
	if len(items) == 0 {
		return nil, nil
	}
	attrs := make(patch.Extra, len(items))
	for _, item := range items {
		key, rawValue, ok := strings.Cut(item, "=")
		if !ok {
			return nil, pserrors.New(pserrors.ErrCodeUsage, "attribute %q must be formatted as key=value", item)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, pserrors.New(pserrors.ErrCodeUsage, "attribute %q has an empty key", item)
		}
		raw, err := json.Marshal(parseScalar(strings.TrimSpace(rawValue)))
		if err != nil {
			return nil, pserrors.Wrap(pserrors.ErrCodeUsage, err, "attribute %q", item)
		}
		attrs[key] = raw
	}
	return attrs, nil
}

func parseScalar(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.Contains(value, ".") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	} else if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	return value
}

// objectSummary is the per-object record exposed by list-objects and
// check payloads.
type objectSummary struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Text     string     `json:"text,omitempty"`
	Alias    string     `json:"alias,omitempty"`
	Position [2]float64 `json:"position"`
	Inlets   int        `json:"num_inlets"`
	Outlets  int        `json:"num_outlets"`
}

func summarize(o *patch.Object) objectSummary {
	return objectSummary{
		ID:       o.ID,
		Name:     check.ObjectName(o.Text),
		Text:     o.Text,
		Alias:    aliasOf(o),
		Position: [2]float64{o.Rect.X, o.Rect.Y},
		Inlets:   o.Inlets,
		Outlets:  o.Outlets,
	}
}

// sortedObjects returns the patch's objects ordered by numeric id
// suffix, non-standard ids last in lexical order.
func sortedObjects(p *patch.Patch) []*patch.Object {
	objs := p.Objects()
	sort.SliceStable(objs, func(i, j int) bool {
		ni, iok := patch.IDSuffix(objs[i].ID)
		nj, jok := patch.IDSuffix(objs[j].ID)
		switch {
		case iok && jok:
			return ni < nj
		case iok != jok:
			return iok
		default:
			return objs[i].ID < objs[j].ID
		}
	})
	return objs
}

// health is the consistency summary attached to every mutating
// command's response and enforced by --strict.
type health struct {
	Findings []check.Finding
	Warnings []string
}

// loadDictionary builds the widest dictionary the configuration
// allows. Scan failures degrade to the built-in dictionary; they never
// fail the command.
func loadDictionary(ctx context.Context, cfg *config.Config) *refdict.Dictionary {
	logger := loggerFromContext(ctx)

	var scanCache cache.Cache = cache.Null{}
	if dir, err := cacheDir(); err == nil {
		if fc, err := cache.NewFileCache(dir); err == nil {
			scanCache = fc
		}
	}
	scanner := refdict.NewScanner(scanCache, logger)
	dict, err := scanner.Load(ctx, cfg.MaxRefPath, cfg.PackagesPath)
	if err != nil {
		logger.Debug("dictionary scan skipped", "err", err)
		return refdict.Builtin()
	}
	return dict
}

// collectHealth runs the consistency checker over the patch.
func collectHealth(ctx context.Context, p *patch.Patch, cfg *config.Config) health {
	dict := loadDictionary(ctx, cfg)
	findings := check.Run(p, check.Options{Known: dict.Known})
	warnings := make([]string, 0, len(findings))
	for _, f := range findings {
		warnings = append(warnings, f.Message)
	}
	return health{Findings: findings, Warnings: warnings}
}

// strictGuard fails the command when strict mode is on and the health
// summary carries warnings.
func strictGuard(strict bool, h health) error {
	if strict && len(h.Warnings) > 0 {
		return pserrors.New(pserrors.ErrCodeCheckFailed,
			"strict mode failed: %s", strings.Join(h.Warnings, "; "))
	}
	return nil
}

// loadConfigFile loads the configuration from the given path, or the
// default location when empty.
func loadConfigFile(path string) (*config.Config, string, error) {
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, "", pserrors.Wrap(pserrors.ErrCodeInternal, err, "cannot locate configuration")
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", pserrors.Wrap(pserrors.ErrCodeBadDocument, err, "cannot load configuration")
	}
	return cfg, path, nil
}

// finalizeMutation applies the shared tail of every mutating command:
// run the checker, honor --strict, save, and assemble the response.
func finalizeMutation(ctx context.Context, opts *globalOptions, p *patch.Patch, inputPath, outputPath string, res *result) (*result, error) {
	cfg, _, err := loadConfigFile(opts.configPath)
	if err != nil {
		return nil, err
	}
	h := collectHealth(ctx, p, cfg)
	if err := strictGuard(opts.strict, h); err != nil {
		return nil, err
	}
	if err := savePatch(p, outputPath); err != nil {
		return nil, err
	}
	res.Input = inputPath
	res.Output = outputPath
	res.Warnings = h.Warnings
	return res, nil
}
