package block

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// linkParser is a package-level goldmark instance used only to decide
// whether a block's content contains an inline link or image. It is never
// used to drive block extraction itself: the extractor's line-scanner owns
// offsets and atomicity, goldmark's AST does not expose either at the
// fidelity this system needs (see the package comment in block.go).
var linkParser = goldmark.New()

// scanLinks reports whether content contains at least one Markdown link or
// image, for populating Block.HasLinks and the corresponding chunk metadata
// field.
func scanLinks(content string) bool {
	source := []byte(content)
	doc := linkParser.Parser().Parse(text.NewReader(source))

	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindLink, ast.KindImage, ast.KindAutoLink:
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}
