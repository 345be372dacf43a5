package agora

import (
	"bytes"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

type markdownSimplifier struct{}

// Transform will replace headings of any level by headings of the lowest level, effectively
// giving the appearance of having no headings at all in comments.
func (m *markdownSimplifier) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	for n := node.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			heading.Level = 6
		}
	}
}

var simplifier = markdownSimplifier{}
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.NewLinkify(
			extension.WithLinkifyAllowedProtocols([][]byte{
				[]byte("http:"),
				[]byte("https:"),
			}),
		),
	),
	goldmark.WithParserOptions(
		parser.WithASTTransformers(util.PrioritizedValue{Value: &simplifier, Priority: 100}),
	),
)

// renderBody converts a comment body from Markdown. goldmark drops raw HTML by default,
// so the output is safe to embed.
func renderBody(body string) template.HTML {
	buf := bytes.NewBufferString("")
	source := []byte(body)
	err := md.Convert(source, buf)

	if err != nil {
		return template.HTML(template.HTMLEscapeString(body))
	}

	return template.HTML(buf.String())
}

// A CommentPresenter is a comment ready to be rendered by the thread templates.
type CommentPresenter struct {
	ID        int64
	ParentID  int64
	Author    string
	Body      template.HTML
	CreatedAt time.Time
	Depth     int
	Hidden    bool
	Children  []*CommentPresenter
}

// NewCommentPresentersTree converts a tree into presenters. Hidden comments keep their
// replies but their body isn't rendered.
func NewCommentPresentersTree(tree CommentTree) []*CommentPresenter {
	ps := make([]*CommentPresenter, 0, len(tree))
	for _, n := range tree {
		ps = append(ps, newCommentPresenter(n))
	}
	return ps
}

func newCommentPresenter(n *CommentNode) *CommentPresenter {
	p := &CommentPresenter{
		ID:        n.Comment.ID,
		Author:    n.Comment.Author.Name,
		CreatedAt: n.Comment.CreatedAt(),
		Depth:     n.Depth,
		Hidden:    n.Hidden,
		Children:  NewCommentPresentersTree(n.Children),
	}
	if n.Comment.ParentID != nil {
		p.ParentID = *n.Comment.ParentID
	}
	if !n.Hidden {
		p.Body = renderBody(n.Comment.Content)
	}
	return p
}
