package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/rnpack/packager/internal/config"
	"github.com/rnpack/packager/internal/graph"
	"github.com/rnpack/packager/internal/helpers"
	"github.com/rnpack/packager/internal/logger"
	"github.com/rnpack/packager/internal/manifest"
	"github.com/rnpack/packager/internal/resolution"
	"github.com/rnpack/packager/internal/resolver"
	"github.com/rnpack/packager/internal/wrapper"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errAlreadyLogged = errors.New("build failed")

type bundleParams struct {
	stdout io.Writer
	log    logger.Log

	configPath string
	entry      string
	outFile    string
	platform   string
	minify     bool
	dev        bool
	runMain    bool
	timing     bool

	// Flags that were not given keep the value from the project file
	platformSet bool
	minifySet   bool
}

func newBundleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Resolve, wrap and concatenate every module reachable from an entry point",
		Example: `  # Write an iOS bundle using ./rnpack.yaml
  rnpack bundle --entry index.js --platform ios --out main.jsbundle

  # Minified production bundle with timing output
  rnpack bundle --entry index.js --minify --timing --out main.jsbundle`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			levelText, _ := flags.GetString("log-level")
			colorText, _ := flags.GetString("color")
			errorLimit, _ := flags.GetInt("error-limit")

			level, err := parseLogLevel(levelText)
			if err != nil {
				return err
			}
			color, err := parseColor(colorText)
			if err != nil {
				return err
			}

			p := bundleParams{
				stdout: cmd.OutOrStdout(),
				log: logger.NewStderrLog(logger.StderrOptions{
					IncludeSource: true,
					ErrorLimit:    errorLimit,
					Color:         color,
					LogLevel:      level,
				}),
				platformSet: flags.Changed("platform"),
				minifySet:   flags.Changed("minify"),
			}
			p.configPath, _ = flags.GetString("config")
			p.entry, _ = flags.GetString("entry")
			p.outFile, _ = flags.GetString("out")
			p.platform, _ = flags.GetString("platform")
			p.minify, _ = flags.GetBool("minify")
			p.dev, _ = flags.GetBool("dev")
			p.runMain, _ = flags.GetBool("run-main")
			p.timing, _ = flags.GetBool("timing")

			err = runBundle(cmd.Context(), p)
			if err != nil && !p.log.HasErrors() {
				p.log.AddError(nil, logger.Range{}, err.Error())
			}
			p.log.Done()
			if err != nil || p.log.HasErrors() {
				return errAlreadyLogged
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("config", config.DefaultFileName, "project file")
	flags.String("entry", "", "entry point, relative to the project root")
	flags.String("out", "", "output file (default stdout)")
	flags.String("platform", "", "platform to resolve modules for (e.g. ios, android)")
	flags.Bool("minify", false, "minify every module")
	flags.Bool("dev", false, "build for development")
	flags.Bool("run-main", true, "require the entry point at the end of the bundle")
	flags.Bool("timing", false, "print how long each phase took")
	flags.String("log-level", "info", "verbose, debug, info, warning, error or silent")
	flags.String("color", "", "force use of color terminal escapes (true or false)")
	flags.Int("error-limit", 10, "maximum error count or 0 to disable")
	_ = cmd.MarkFlagRequired("entry")
	return cmd
}

func parseLogLevel(text string) (logger.LogLevel, error) {
	switch text {
	case "verbose":
		return logger.LevelVerbose, nil
	case "debug":
		return logger.LevelDebug, nil
	case "info":
		return logger.LevelInfo, nil
	case "warning":
		return logger.LevelWarning, nil
	case "error":
		return logger.LevelError, nil
	case "silent":
		return logger.LevelSilent, nil
	default:
		return logger.LevelNone, fmt.Errorf("invalid log level %q", text)
	}
}

func parseColor(text string) (logger.StderrColor, error) {
	switch text {
	case "":
		return logger.ColorIfTerminal, nil
	case "true":
		return logger.ColorAlways, nil
	case "false":
		return logger.ColorNever, nil
	default:
		return logger.ColorIfTerminal, fmt.Errorf("invalid color setting %q (expected true or false)", text)
	}
}

func runBundle(ctx context.Context, p bundleParams) error {
	var timer *helpers.Timer
	if p.timing {
		timer = &helpers.Timer{}
	}

	timer.Begin("Load project")
	project, err := config.Load(p.configPath)
	if err != nil {
		return err
	}
	if p.platformSet || project.Platform == "" {
		project.Platform = p.platform
	}
	if p.minifySet {
		project.Minify = p.minify
	}
	if project.Manifest == "" {
		return &config.ConfigurationError{Field: "manifest", Reason: "is required"}
	}
	g, err := manifest.Load(project.ProjectRoot, project.Manifest, p.log)
	if err != nil {
		return err
	}
	r, err := resolver.NewResolver(project.Options(p.log), g)
	if err != nil {
		return err
	}
	timer.End("Load project")

	timer.Begin("Resolve dependencies")
	response, err := r.GetDependencies(ctx, p.entry, resolver.DependencyOptions{
		Platform: project.Platform,
		Dev:      p.dev,
	}, nil)
	timer.End("Resolve dependencies")
	if err != nil {
		return err
	}

	timer.Begin("Wrap modules")
	results := make([]wrapper.Result, len(response.Dependencies))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, module := range response.Dependencies {
		i, module := i, module
		group.Go(func() error {
			result, err := wrapFile(groupCtx, r, g, response, module, project.Minify)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	err = group.Wait()
	timer.End("Wrap modules")
	if err != nil {
		return err
	}

	timer.Begin("Write output")
	j := helpers.Joiner{}
	for _, result := range results {
		j.AddString(result.Code)
		j.EnsureNewlineAtEnd()
	}
	if p.runMain {
		j.AddString("require(")
		j.AddString(helpers.QuoteForJSON(response.MainModuleID, false))
		j.AddString(");\n")
	}
	err = writeOutput(p.stdout, p.outFile, j.Done())
	timer.End("Write output")
	if err != nil {
		return err
	}

	timer.Log(p.log)
	p.log.AddDebug(fmt.Sprintf("Wrote %d modules", len(results)))
	return nil
}

func wrapFile(
	ctx context.Context, r *resolver.Resolver, g *manifest.Graph,
	response *resolution.Response, module graph.Module, minify bool,
) (wrapper.Result, error) {
	code, err := os.ReadFile(module.Path())
	if err != nil {
		return wrapper.Result{}, err
	}
	return r.WrapModule(ctx, resolver.WrapModuleArgs{
		ResolutionResponse: response,
		Module:             module,
		Code:               string(code),
		Meta:               g.Meta(module),
		Minify:             minify,
	})
}

func writeOutput(stdout io.Writer, path string, text string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
