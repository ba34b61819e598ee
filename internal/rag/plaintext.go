package rag

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var extraBlankLines = regexp.MustCompile(`\n{3,}`)

// PlainText renders markdown as plain text: emphasis and heading markers are
// dropped, ordered lists keep their numbers, paragraphs are separated by a blank line.
func PlainText(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				buf.Write(node.Label(source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(source))
				}
				buf.WriteByte('\n')
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if entering {
				if list, ok := node.Parent().(*ast.List); ok && list.IsOrdered() {
					buf.WriteString(strconv.Itoa(list.Start + siblingIndex(node)))
					buf.WriteString(". ")
				}
			}
		case *ast.TextBlock:
			if !entering {
				buf.WriteByte('\n')
			}
		case *ast.Paragraph, *ast.Heading:
			if !entering {
				buf.WriteString("\n\n")
			}
		case *ast.ThematicBreak:
			if entering {
				buf.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	out := extraBlankLines.ReplaceAllString(buf.String(), "\n\n")
	return strings.TrimSpace(out)
}

func siblingIndex(n ast.Node) int {
	i := 0
	for p := n.PreviousSibling(); p != nil; p = p.PreviousSibling() {
		i++
	}
	return i
}
