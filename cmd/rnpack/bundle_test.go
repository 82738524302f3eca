package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rnpack/packager/internal/config"
	"github.com/rnpack/packager/internal/logger"
	"github.com/rnpack/packager/internal/manifest"
	"github.com/rnpack/packager/internal/polyfill"
	"github.com/rnpack/packager/internal/resolver"
	"github.com/rnpack/packager/internal/test"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for _, file := range polyfill.CanonicalFiles() {
		files["polyfills/"+file] = "/* " + file + " */"
	}
	for name, contents := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func sampleProject(t *testing.T) string {
	return writeProject(t, map[string]string{
		"rnpack.yaml": "manifest: modules.yaml\nplatform: ios\n",
		"modules.yaml": `
modules:
  - id: index
    path: index.js
    dependencies:
      ./App: App
  - id: App
    path: App.ios.js
    platforms: [ios]
    dependencies:
      ./strings.json: strings
  - id: strings
    path: strings.json
    json: true
`,
		"index.js":     `var App = require('./App');`,
		"App.ios.js":   `module.exports = require("./strings.json").title;`,
		"strings.json": `{"title":"Hi"}`,
	})
}

func TestBundle(t *testing.T) {
	root := sampleProject(t)
	stdout := bytes.Buffer{}
	log := logger.NewDeferLog(logger.LevelInfo)

	err := runBundle(context.Background(), bundleParams{
		stdout:     &stdout,
		log:        log,
		configPath: filepath.Join(root, "rnpack.yaml"),
		entry:      "index.js",
		runMain:    true,
		timing:     true,
	})
	if err != nil {
		t.Fatal(err)
	}

	wrapPolyfill := func(file string) string {
		return "(function(global) {\n/* " + file + " */\n})" +
			"(typeof global !== 'undefined' ? global : typeof self !== 'undefined' ? self : this);\n"
	}
	expected := ""
	for _, file := range polyfill.CanonicalFiles() {
		expected += wrapPolyfill(file)
	}
	expected += `__d("index", function(global, require, module, exports) {var App = require("App");` + "\n});\n" +
		`__d("App", function(global, require, module, exports) {module.exports = require("strings").title;` + "\n});\n" +
		`__d("strings", function(global, require, module, exports) {module.exports = {"title":"Hi"}` + "\n});\n" +
		`require("index");` + "\n"
	test.AssertEqualWithDiff(t, stdout.String(), expected)

	msgs := log.Done()
	test.AssertEqual(t, len(msgs), 1)
	test.AssertEqual(t, msgs[0].Text, "Timing information")
	test.AssertEqual(t, len(msgs[0].Notes), 4)
}

func TestBundleToFileWithMinification(t *testing.T) {
	root := sampleProject(t)
	out := filepath.Join(root, "main.jsbundle")

	err := runBundle(context.Background(), bundleParams{
		log:        logger.NewDeferLog(logger.LevelInfo),
		configPath: filepath.Join(root, "rnpack.yaml"),
		entry:      "index.js",
		outFile:    out,
		minify:     true,
		minifySet:  true,
	})
	if err != nil {
		t.Fatal(err)
	}

	contents, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(contents)
	if !strings.Contains(text, `__d("index",`) || !strings.Contains(text, `"strings"`) {
		t.Fatalf("unexpected bundle:\n%s", text)
	}
	if strings.Contains(text, "function(global, require") || strings.Contains(text, `require("index")`) {
		t.Fatalf("expected minified modules without a main require:\n%s", text)
	}
}

func TestBundleOtherPlatform(t *testing.T) {
	root := sampleProject(t)
	stdout := bytes.Buffer{}
	log := logger.NewDeferLog(logger.LevelWarning)

	err := runBundle(context.Background(), bundleParams{
		stdout:      &stdout,
		log:         log,
		configPath:  filepath.Join(root, "rnpack.yaml"),
		entry:       "index.js",
		platform:    "android",
		platformSet: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stdout.String(), `var App = require('./App');`) {
		t.Fatalf("expected the unresolved reference to be left alone:\n%s", stdout.String())
	}
	msgs := log.Done()
	test.AssertEqual(t, len(msgs), 1)
	test.AssertEqual(t, msgs[0].Kind, logger.Warning)
}

func TestBundleUnknownEntry(t *testing.T) {
	root := sampleProject(t)

	err := runBundle(context.Background(), bundleParams{
		stdout:     &bytes.Buffer{},
		log:        logger.NewDeferLog(logger.LevelInfo),
		configPath: filepath.Join(root, "rnpack.yaml"),
		entry:      "missing.js",
	})
	if err == nil || !strings.Contains(err.Error(), "missing.js") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBundleMissingPolyfill(t *testing.T) {
	root := sampleProject(t)
	if err := os.Remove(filepath.Join(root, "polyfills", "console.js")); err != nil {
		t.Fatal(err)
	}

	err := runBundle(context.Background(), bundleParams{
		stdout:     &bytes.Buffer{},
		log:        logger.NewDeferLog(logger.LevelInfo),
		configPath: filepath.Join(root, "rnpack.yaml"),
		entry:      "index.js",
	})
	if !os.IsNotExist(err) {
		t.Fatalf("expected a missing file error, got %v", err)
	}
}

func TestBundleRequiresManifest(t *testing.T) {
	root := writeProject(t, map[string]string{"rnpack.yaml": "platform: ios\n"})

	err := runBundle(context.Background(), bundleParams{
		log:        logger.NewDeferLog(logger.LevelInfo),
		configPath: filepath.Join(root, "rnpack.yaml"),
		entry:      "index.js",
	})
	test.AssertEqual(t, err.Error(), "invalid configuration: manifest is required")
}

func TestParseFlags(t *testing.T) {
	level, err := parseLogLevel("warning")
	test.AssertEqual(t, err, nil)
	test.AssertEqual(t, level, logger.LevelWarning)
	if _, err := parseLogLevel("loud"); err == nil {
		t.Fatal("expected an error")
	}

	color, err := parseColor("false")
	test.AssertEqual(t, err, nil)
	test.AssertEqual(t, color, logger.ColorNever)
	if _, err := parseColor("maybe"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestBundleRelativePolyfillDir(t *testing.T) {
	files := map[string]string{
		"rnpack.yaml":  "manifest: modules.yaml\npolyfill_dir: vendor/polyfills\n",
		"modules.yaml": "modules:\n  - id: index\n    path: index.js\n",
		"index.js":     "start();",
	}
	for _, file := range polyfill.CanonicalFiles() {
		files["vendor/polyfills/"+file] = "/* vendored " + file + " */"
	}
	root := writeProject(t, files)
	configPath := filepath.Join(root, "rnpack.yaml")

	project, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	g, err := manifest.Load(project.ProjectRoot, project.Manifest, logger.Log{})
	if err != nil {
		t.Fatal(err)
	}
	r, err := resolver.NewResolver(project.Options(logger.Log{}), g)
	if err != nil {
		t.Fatal(err)
	}
	response, err := r.GetDependencies(context.Background(), "index.js", resolver.DependencyOptions{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	console := response.Dependencies[1]
	name, _ := console.Name(context.Background())
	test.AssertEqual(t, name, "vendor/polyfills/console.js")
	test.AssertEqual(t, console.Path(), filepath.Join(root, "vendor", "polyfills", "console.js"))

	stdout := bytes.Buffer{}
	err = runBundle(context.Background(), bundleParams{
		stdout:     &stdout,
		log:        logger.NewDeferLog(logger.LevelWarning),
		configPath: configPath,
		entry:      "index.js",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "/* vendored console.js */") {
		t.Fatalf("expected the vendored polyfills:\n%s", stdout.String())
	}
}
