package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rnpack/packager/internal/config"
	"github.com/rnpack/packager/internal/logger"
	"github.com/rnpack/packager/internal/test"
)

func TestValidate(t *testing.T) {
	expect := func(options config.Options, field string) {
		t.Helper()
		err := options.Validate()
		if field == "" {
			test.AssertEqual(t, err, nil)
			return
		}
		var configErr *config.ConfigurationError
		if !errors.As(err, &configErr) {
			t.Fatalf("expected a configuration error, got %v", err)
		}
		test.AssertEqual(t, configErr.Field, field)
	}

	expect(config.Options{}, "ProjectRoot")
	expect(config.Options{ProjectRoot: "/root"}, "")
	expect(config.Options{ProjectRoot: "/root", PolyfillModuleNames: []string{"some module", ""}}, "PolyfillModuleNames[1]")
}

func writeFile(t *testing.T, path string, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)
	writeFile(t, path, `
project_root: app
manifest: modules.yaml
polyfill_dir: vendor/polyfills
polyfill_module_names:
  - some module
platform: ios
minify: true
`)

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	test.AssertEqualWithDiff(t, loaded, config.ProjectConfig{
		ProjectRoot:         filepath.Join(dir, "app"),
		Manifest:            filepath.Join(dir, "app", "modules.yaml"),
		PolyfillDir:         "vendor/polyfills",
		PolyfillModuleNames: []string{"some module"},
		Platform:            "ios",
		Minify:              true,
	})

	options := loaded.Options(logger.NewDeferLog(logger.LevelSilent))
	test.AssertEqual(t, options.ProjectRoot, filepath.Join(dir, "app"))
	test.AssertEqual(t, options.MinifyCode != nil, true)
	test.AssertEqual(t, options.Validate(), nil)
}

func TestLoadDefaultsProjectRootToConfigDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)
	writeFile(t, path, "")

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	test.AssertEqual(t, loaded.ProjectRoot, dir)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)
	writeFile(t, path, "polyfills: [a]\n")

	if _, err := config.Load(path); err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}
