package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sentiview/sentiview/internal/utils"
)

const (
	ConfigFile   = "config.js"
	TemplateFile = "config.template.js"
	IndexFile    = "index.html"
	ScriptSrc    = "/" + ConfigFile
)

// InjectOptions controls where Inject reads and writes.
type InjectOptions struct {
	// Root is the served output directory.
	Root string
	// Template defaults to Root/config.template.js.
	Template string
	// Index defaults to Root/index.html.
	Index string
	// ScriptSrc defaults to "/config.js".
	ScriptSrc string
	Config    RuntimeConfig
}

// InjectResult reports what Inject did.
type InjectResult struct {
	ConfigPath          string
	TemplateSynthesized bool
	ScriptInserted      bool
}

// Inject writes Root/config.js from the template and makes index.html load
// it before the closing head tag. Every step is attempted even when an
// earlier one fails; the returned error joins all failures and callers are
// expected to log it and keep serving.
func Inject(opts InjectOptions) (InjectResult, error) {
	if opts.Template == "" {
		opts.Template = filepath.Join(opts.Root, TemplateFile)
	}
	if opts.Index == "" {
		opts.Index = filepath.Join(opts.Root, IndexFile)
	}
	if opts.ScriptSrc == "" {
		opts.ScriptSrc = ScriptSrc
	}
	if opts.Config.APIBase == "" {
		opts.Config = New("")
	}

	var (
		res  InjectResult
		errs []error
	)

	tmpl, synthesized, err := loadTemplate(opts.Template)
	res.TemplateSynthesized = synthesized
	if err != nil {
		errs = append(errs, err)
	}

	res.ConfigPath = filepath.Join(opts.Root, ConfigFile)
	if err := writeFileAtomic(res.ConfigPath, []byte(opts.Config.Render(tmpl))); err != nil {
		errs = append(errs, fmt.Errorf("write %s: %w", ConfigFile, err))
	} else {
		utils.Log.Debugf("[inject] wrote %s (API_BASE=%s)", res.ConfigPath, opts.Config.APIBase)
	}

	inserted, err := patchIndex(opts.Index, opts.ScriptSrc)
	res.ScriptInserted = inserted
	if err != nil {
		errs = append(errs, fmt.Errorf("patch %s: %w", filepath.Base(opts.Index), err))
	}

	return res, errors.Join(errs...)
}

// loadTemplate reads the template, synthesising and persisting the default
// one when the file is missing. The default template is always returned so
// config.js can be written even when persisting it fails.
func loadTemplate(path string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		return string(b), false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return DefaultTemplate, false, fmt.Errorf("read template: %w", err)
	}

	utils.Log.Debugf("[inject] %s not found, synthesizing default template", path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return DefaultTemplate, true, fmt.Errorf("create template dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultTemplate), 0o644); err != nil {
		return DefaultTemplate, true, fmt.Errorf("write default template: %w", err)
	}
	return DefaultTemplate, true, nil
}

func patchIndex(path, src string) (bool, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	out, inserted, err := InsertScriptTag(doc, src)
	if err != nil || !inserted {
		return false, err
	}
	if err := writeFileAtomic(path, out); err != nil {
		return false, err
	}
	return true, nil
}

// writeFileAtomic replaces path so the file server never sees a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
