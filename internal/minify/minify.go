package minify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

type Result struct {
	Code string

	// This is nil when no source map was produced
	Map json.RawMessage
}

// Func minifies one wrapped module. The origin path is only used for
// naming in error messages and source maps.
type Func func(ctx context.Context, originPath string, code string, sourceMap json.RawMessage) (Result, error)

type Options struct {
	MinifyIdentifiers bool
	Target            api.Target
}

// ESBuild returns a minifier backed by esbuild's transform API. When an
// input source map is given it is attached as an inline comment so esbuild
// chains it into the map it returns.
func ESBuild(options Options) Func {
	return func(ctx context.Context, originPath string, code string, sourceMap json.RawMessage) (Result, error) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		sourcemap := api.SourceMapNone
		if len(sourceMap) > 0 {
			code = code + "\n//# sourceMappingURL=data:application/json;base64," +
				base64.StdEncoding.EncodeToString(sourceMap)
			sourcemap = api.SourceMapExternal
		}

		result := api.Transform(code, api.TransformOptions{
			Loader:            api.LoaderJS,
			Target:            options.Target,
			Sourcefile:        originPath,
			Sourcemap:         sourcemap,
			MinifyWhitespace:  true,
			MinifySyntax:      true,
			MinifyIdentifiers: options.MinifyIdentifiers,
			LogLevel:          api.LogLevelSilent,
		})

		if len(result.Errors) > 0 {
			texts := make([]string, len(result.Errors))
			for i, msg := range result.Errors {
				if msg.Location != nil {
					texts[i] = fmt.Sprintf("%d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text)
				} else {
					texts[i] = msg.Text
				}
			}
			return Result{}, fmt.Errorf("%s: %s", originPath, strings.Join(texts, "; "))
		}

		minified := Result{Code: string(result.Code)}
		if len(result.Map) > 0 {
			minified.Map = json.RawMessage(result.Map)
		}
		return minified, nil
	}
}
