package cli

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/patchsmith/patchsmith/pkg/config"
	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
	"github.com/patchsmith/patchsmith/pkg/maxpat"
	"github.com/patchsmith/patchsmith/pkg/patch"
)

// defaultMaxAppPath is tried when no max_path is configured.
const defaultMaxAppPath = "/Applications/Max.app"

// validatePollInterval is how often the validation loop re-stats the
// helper file while waiting for Max to save it.
const validatePollInterval = 200 * time.Millisecond

// resolveMaxAppPath resolves the configured Max application bundle and
// verifies it exists.
func resolveMaxAppPath(cfg *config.Config) (string, error) {
	candidates := []string{strings.TrimSpace(cfg.MaxPath), defaultMaxAppPath}
	for _, candidate := range candidates {
		candidate = strings.TrimSuffix(candidate, "/")
		if candidate == "" || filepath.Ext(candidate) != ".app" {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", pserrors.New(pserrors.ErrCodeBadDocument,
		"Max.app not found. Set it with `patchsmith config set max_path /Applications/Max.app`. Checked: %s",
		strings.Join(candidates, ", "))
}

// runMaxValidation validates an exported .amxd through open and
// load/save roundtrip checks in Max.
//
// Max gives no direct completion signal, so the check is indirect: a
// copy of the patch is instrumented with a helper that makes Max
// rewrite the file on load, and the loop below waits for the mtime to
// move. macOS only.
func runMaxValidation(ctx context.Context, amxdPath, maxAppPath string, timeout time.Duration) error {
	if runtime.GOOS != "darwin" {
		return pserrors.New(pserrors.ErrCodeUsage, "export-amxd validation is currently supported on macOS only")
	}
	logger := loggerFromContext(ctx)

	// First ensure Max accepts opening the target .amxd file.
	if err := openInMax(ctx, maxAppPath, amxdPath, ".amxd"); err != nil {
		return err
	}

	// Then run deterministic write+close validation using a
	// helper-instrumented .maxpat copy.
	tmpDir, err := os.MkdirTemp("", "patchsmith-amxd-validate-")
	if err != nil {
		return pserrors.Wrap(pserrors.ErrCodeInternal, err, "cannot create validation directory")
	}
	defer os.RemoveAll(tmpDir)

	base := strings.TrimSuffix(filepath.Base(amxdPath), filepath.Ext(amxdPath))
	validationPath := filepath.Join(tmpDir, base+".validation.maxpat")

	p, err := maxpat.ReadFile(amxdPath)
	if err != nil {
		return pserrors.Wrap(pserrors.ErrCodeBadDocument, err, "invalid exported device %q", amxdPath)
	}
	if err := injectValidationHelper(p); err != nil {
		return err
	}
	if err := maxpat.WriteFile(p, validationPath); err != nil {
		return pserrors.Wrap(pserrors.ErrCodeInternal, err, "cannot write validation file")
	}

	info, err := os.Stat(validationPath)
	if err != nil {
		return pserrors.Wrap(pserrors.ErrCodeInternal, err, "cannot stat validation file")
	}
	startMtime := info.ModTime()

	if err := openInMax(ctx, maxAppPath, validationPath, "validation .maxpat"); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(validatePollInterval):
		}

		current, err := os.Stat(validationPath)
		if os.IsNotExist(err) {
			return pserrors.New(pserrors.ErrCodeBadDocument, "validation file disappeared during Max validation")
		}
		if err != nil {
			return pserrors.Wrap(pserrors.ErrCodeInternal, err, "cannot stat validation file")
		}
		if current.ModTime().After(startMtime) {
			if _, err := maxpat.ReadFile(validationPath); err != nil {
				return pserrors.Wrap(pserrors.ErrCodeBadDocument, err, "Max wrote an unparseable validation file")
			}
			logger.Debug("Max validation completed", "path", validationPath)
			return nil
		}
	}
	return pserrors.New(pserrors.ErrCodeBadDocument,
		"timed out waiting for Max to write validation file within %.1fs", timeout.Seconds())
}

// openInMax opens a file in the Max application via the macOS open
// command.
func openInMax(ctx context.Context, maxAppPath, filePath, kind string) error {
	cmd := exec.CommandContext(ctx, "open", "-a", maxAppPath, filePath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = err.Error()
		}
		return pserrors.New(pserrors.ErrCodeBadDocument, "failed to launch Max for %s: %s", kind, detail)
	}
	return nil
}

// injectValidationHelper adds a loadbang wired to a "; thispatcher
// write" message so Max rewrites the file as soon as it loads.
func injectValidationHelper(p *patch.Patch) error {
	bang := &patch.Object{
		ID:      p.AllocateID(),
		Text:    "loadbang",
		Rect:    patch.Rect{X: 10, Y: 10, Width: patch.DefaultRect.Width, Height: patch.DefaultRect.Height},
		Inlets:  1,
		Outlets: 1,
	}
	save := &patch.Object{
		ID:      p.AllocateID(),
		Text:    "; thispatcher write",
		Rect:    patch.Rect{X: 10, Y: 50, Width: patch.DefaultRect.Width, Height: patch.DefaultRect.Height},
		Inlets:  2,
		Outlets: 1,
	}
	if err := p.InsertObject(bang); err != nil {
		return pserrors.Wrap(pserrors.ErrCodeInternal, err, "cannot inject validation helper")
	}
	if err := p.InsertObject(save); err != nil {
		return pserrors.Wrap(pserrors.ErrCodeInternal, err, "cannot inject validation helper")
	}
	conn := &patch.Connection{
		Source:      patch.OutletOf(bang.ID, 0),
		Destination: patch.InletOf(save.ID, 0),
	}
	if err := p.InsertConnection(conn); err != nil {
		return pserrors.Wrap(pserrors.ErrCodeInternal, err, "cannot inject validation helper")
	}
	return nil
}
