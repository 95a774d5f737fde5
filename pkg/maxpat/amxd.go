package maxpat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/patchsmith/patchsmith/pkg/patch"
)

var (
	// ErrBadExtension is returned by [ExportAMXD] when the output path
	// does not end in .amxd.
	ErrBadExtension = errors.New("output path must use the .amxd extension")

	// ErrExists is returned by [ExportAMXD] when the output file
	// already exists and overwriting was not requested.
	ErrExists = errors.New("output file already exists")
)

// AMXDOptions configures packaged-device export.
type AMXDOptions struct {
	// Name and Category are the device metadata recorded in the
	// exported document. Empty values are omitted.
	Name     string
	Category string
	// Overwrite allows replacing an existing output file.
	Overwrite bool
}

// ExportAMXD writes the patch as a packaged Max for Live device: the
// same patcher document produced by [WriteFile], wrapped with the small
// amount of device metadata the container format adds. The extension
// is enforced and existing files are not replaced unless requested.
func ExportAMXD(p *patch.Patch, path string, opts AMXDOptions) error {
	if strings.ToLower(filepath.Ext(path)) != ".amxd" {
		return fmt.Errorf("%w: %s", ErrBadExtension, path)
	}
	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		return fmt.Errorf("%w: %s", ErrExists, path)
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	doc, err := buildDocument(p)
	if err != nil {
		return err
	}
	if opts.Name != "" || opts.Category != "" {
		device := map[string]string{}
		if opts.Name != "" {
			device["name"] = opts.Name
		}
		if opts.Category != "" {
			device["category"] = opts.Category
		}
		doc["device"], _ = json.Marshal(device)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
