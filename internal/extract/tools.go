package extract

import (
	"context"

	"github.com/local/pdftranslate/internal/tool"
)

// ToolStrategy adapts a subprocess tool client into a Strategy. The math
// and layout strategies differ only in the tool they delegate to and the
// flags they pass.
type ToolStrategy struct {
	name           string
	tool           tool.Tool
	outputDir      string
	service        string
	preserveFormat bool
	targetLanguage string
}

// NewMath wraps the pdf2zh client (math-aware translation).
func NewMath(t tool.Tool, outputDir, targetLanguage, service string) *ToolStrategy {
	return &ToolStrategy{
		name:           StrategyMath,
		tool:           t,
		outputDir:      outputDir,
		service:        service,
		targetLanguage: targetLanguage,
	}
}

// NewLayout wraps the babeldoc client (layout-preserving translation).
func NewLayout(t tool.Tool, outputDir, targetLanguage, service string) *ToolStrategy {
	return &ToolStrategy{
		name:           StrategyLayout,
		tool:           t,
		outputDir:      outputDir,
		service:        service,
		preserveFormat: true,
		targetLanguage: targetLanguage,
	}
}

func (s *ToolStrategy) Name() string { return s.name }

func (s *ToolStrategy) Extract(ctx context.Context, path string, progress Progress) (Document, error) {
	out, err := s.tool.Run(ctx, tool.Invocation{
		InputPath:      path,
		OutputDir:      s.outputDir,
		TargetLanguage: s.targetLanguage,
		Service:        s.service,
		PreserveFormat: s.preserveFormat,
	})
	if err != nil {
		return Document{}, err
	}
	pages := out.Pages
	if pages <= 0 {
		pages = 1
	}
	if progress != nil {
		progress(pages, pages)
	}
	return Document{
		Text:      out.Text,
		PageCount: pages,
		MonoPath:  out.MonoPath,
		DualPath:  out.DualPath,
	}, nil
}
