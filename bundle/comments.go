package bundle

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/foliotools/folio"
)

// RenderComments renders an enriched comment forest as flat HTML with anchor
// navigation. Every comment gets an element with id c_<id>; the nav row links
// to parent, next sibling, thread root and next thread, emitting an inert
// span where a link target does not exist so the row keeps its shape.
// Bodies pass through the sanitizer; everything else is escaped.
func RenderComments(roots []*folio.CommentNode, sanitizer folio.Sanitizer, maxDepth int) string {
	folio.EnrichComments(roots)

	var b strings.Builder
	b.WriteString(`<div class="comments">` + "\n")
	for _, root := range roots {
		renderComment(&b, root, 0, maxDepth, sanitizer)
	}
	b.WriteString("</div>\n")
	return b.String()
}

func renderComment(b *strings.Builder, node *folio.CommentNode, depth, maxDepth int, sanitizer folio.Sanitizer) {
	if maxDepth > 0 && depth >= maxDepth {
		return
	}

	fmt.Fprintf(b, `<div class="comment depth-%d" id="c_%s">`+"\n", depth, html.EscapeString(node.ID))

	b.WriteString(`<div class="comment-meta">`)
	author := node.Author
	if author == "" {
		author = "[deleted]"
	}
	b.WriteString(`<span class="comment-author">` + html.EscapeString(author) + `</span>`)
	if node.TimestampUnix > 0 {
		ts := time.Unix(node.TimestampUnix, 0).UTC().Format("2006-01-02 15:04")
		b.WriteString(` <span class="comment-time">` + ts + `</span>`)
	}
	b.WriteString("</div>\n")

	body := node.BodyHTML
	if sanitizer != nil {
		body = sanitizer.Sanitize(body)
	}
	b.WriteString(`<div class="comment-body">` + body + "</div>\n")

	b.WriteString(`<div class="comment-nav">`)
	writeNavLink(b, "parent", node.ParentID)
	writeNavLink(b, "next", node.NextSiblingID)
	writeNavLink(b, "root", node.RootID)
	writeNavLink(b, "next thread", node.NextRootID)
	b.WriteString("</div>\n")

	b.WriteString("</div>\n")

	for _, child := range node.Children {
		renderComment(b, child, depth+1, maxDepth, sanitizer)
	}
}

func writeNavLink(b *strings.Builder, label, targetID string) {
	if targetID == "" {
		b.WriteString(`<span class="nav-inert">` + label + `</span> `)
		return
	}
	fmt.Fprintf(b, `<a href="#c_%s">%s</a> `, html.EscapeString(targetID), label)
}
