package wrapper

import (
	"context"
	"fmt"
	"sort"

	"github.com/rnpack/packager/internal/helpers"
	"github.com/rnpack/packager/internal/logger"
	"github.com/rnpack/packager/internal/resolution"
	"golang.org/x/sync/errgroup"
)

type OffsetError struct {
	Module string
	Offset int
	Reason string
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("invalid dependency offset %d in %q: %s", e.Offset, e.Module, e.Reason)
}

type reference struct {
	span  logger.Range
	index int
}

// Rewrites the quoted reference literals at the given offsets so each one
// holds the canonical name of the module it resolved to. Name lookups run
// concurrently. Splicing happens afterwards, one literal at a time, from the
// highest offset down so that earlier spans never shift.
func (t *Transformer) resolveReferences(
	ctx context.Context, name string, code string, pairs []resolution.Pair, offsets []int,
) (string, error) {
	count := len(pairs)
	if len(offsets) < count {
		count = len(offsets)
	}
	if len(offsets) > count {
		t.log.AddDebug(fmt.Sprintf("Left %d of %d references in %q unchanged",
			len(offsets)-count, len(offsets), name))
	}
	if count == 0 {
		return code, nil
	}

	source := logger.Source{PrettyPath: name, Contents: code}
	refs, err := t.findReferences(&source, offsets[:count])
	if err != nil {
		return "", err
	}

	names := make([]string, count)
	g, gctx := errgroup.WithContext(ctx)
	for i, pair := range pairs[:count] {
		if pair.Module == nil {
			continue
		}
		i, pair := i, pair
		g.Go(func() error {
			resolved, err := pair.Module.Name(gctx)
			if err != nil {
				return &NameResolutionError{Reference: pair.Name, Err: err}
			}
			names[i] = resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	for _, ref := range refs {
		if pairs[ref.index].Module == nil {
			continue
		}
		start := int(ref.span.Loc.Start)
		end := int(ref.span.End())
		code = code[:start] + helpers.QuoteForJSON(names[ref.index], false) + code[end:]
	}
	return code, nil
}

// Returns the literal spans sorted by descending position. All spans are
// measured against the original text.
func (t *Transformer) findReferences(source *logger.Source, offsets []int) ([]reference, error) {
	refs := make([]reference, len(offsets))

	for i, offset := range offsets {
		if offset < 0 || offset >= len(source.Contents) {
			return nil, t.offsetError(source, offset, logger.Range{}, fmt.Sprintf(
				"outside of the %d bytes of source text", len(source.Contents)))
		}

		loc := logger.Loc{Start: int32(offset)}
		span := source.RangeOfString(loc)
		if span.Len == 0 {
			reason := "expected a quote character"
			if c := source.Contents[offset]; c == '"' || c == '\'' {
				reason = "the string literal is never closed"
			}
			return nil, t.offsetError(source, offset, logger.Range{Loc: loc, Len: 1}, reason)
		}
		refs[i] = reference{span: span, index: i}
	}

	sort.SliceStable(refs, func(a int, b int) bool {
		return refs[a].span.Loc.Start > refs[b].span.Loc.Start
	})

	for i := 1; i < len(refs); i++ {
		if refs[i].span.End() > refs[i-1].span.Loc.Start {
			return nil, t.offsetError(source, int(refs[i-1].span.Loc.Start), refs[i-1].span,
				"overlaps the string literal before it")
		}
	}
	return refs, nil
}

func (t *Transformer) offsetError(source *logger.Source, offset int, r logger.Range, reason string) error {
	if r.Len > 0 {
		t.log.AddError(source, r, fmt.Sprintf("Invalid dependency offset: %s", reason))
	} else {
		t.log.AddError(nil, r, fmt.Sprintf("Invalid dependency offset %d in %q: %s", offset, source.PrettyPath, reason))
	}
	return &OffsetError{Module: source.PrettyPath, Offset: offset, Reason: reason}
}
