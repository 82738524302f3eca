package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rnpack/packager/internal/logger"
	"github.com/rnpack/packager/internal/minify"
	"gopkg.in/yaml.v3"
)

const DefaultFileName = "rnpack.yaml"

// ProjectConfig models the project file read by the command line tool.
// The project root is resolved against the directory of the file and the
// manifest against the project root. The polyfill directory is left as
// written since it forms polyfill ids; the graph locates the files.
type ProjectConfig struct {
	ProjectRoot         string   `yaml:"project_root"`
	Manifest            string   `yaml:"manifest"`
	PolyfillDir         string   `yaml:"polyfill_dir,omitempty"`
	PolyfillModuleNames []string `yaml:"polyfill_module_names,omitempty"`
	Platform            string   `yaml:"platform,omitempty"`
	Minify              bool     `yaml:"minify,omitempty"`
	MinifyIdentifiers   bool     `yaml:"minify_identifiers,omitempty"`
}

func Load(path string) (ProjectConfig, error) {
	var config ProjectConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("parse %s: %w", path, err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return config, err
	}
	if config.ProjectRoot == "" {
		config.ProjectRoot = base
	} else if !filepath.IsAbs(config.ProjectRoot) {
		config.ProjectRoot = filepath.Join(base, config.ProjectRoot)
	}
	if config.Manifest != "" && !filepath.IsAbs(config.Manifest) {
		config.Manifest = filepath.Join(config.ProjectRoot, config.Manifest)
	}
	return config, nil
}

// Options converts the project file into resolver options. The esbuild
// minifier is always attached; whether it runs is decided per module.
func (config ProjectConfig) Options(log logger.Log) Options {
	return Options{
		ProjectRoot:         config.ProjectRoot,
		PolyfillModuleNames: append([]string{}, config.PolyfillModuleNames...),
		PolyfillDir:         config.PolyfillDir,
		MinifyCode:          minify.ESBuild(minify.Options{MinifyIdentifiers: config.MinifyIdentifiers}),
		Log:                 log,
	}
}
