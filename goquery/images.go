// Package goquery implements HTML walking for image resolution, profile
// based content extraction and driver content sniffing.
package goquery

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foliotools/folio"
	"golang.org/x/sync/errgroup"
)

// lazyAttrs are the attribute names lazy-loading scripts stash the real
// image URL in.
var lazyAttrs = []string{"data-src", "data-url", "data-lazy-src", "data-lazy"}

// ResolveImages walks every img element in html, resolves each reference
// through the resolver, and rewrites the element to point at the resolved
// asset's filename. Images that fail to resolve are removed rather than left
// as broken references. The rewritten markup is returned; a parse failure is
// the only error.
//
// Resolution happens sequentially within one document; callers that want
// concurrency fan out over ResolveImageRefs instead and rewrite afterwards.
func ResolveImages(ctx context.Context, html, baseURL string, resolver folio.AssetResolver, assets *folio.AssetSet) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", folio.Errorf(folio.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		ref := imageRef(sel)
		asset, err := resolver.Resolve(ctx, ref, baseURL, assets)
		if err != nil {
			slog.Debug("dropping unresolved image", "src", ref.Src, "error", err)
			dropImage(sel)
			return
		}
		rewriteImage(sel, asset)
	})

	return doc.Find("body").Html()
}

// ResolveImagesConcurrent is ResolveImages with the per-image resolutions
// fanned out concurrently and joined before the markup is rewritten. The
// AssetSet serializes inserts, so concurrent resolutions of identical content
// still collapse to one asset.
func ResolveImagesConcurrent(ctx context.Context, html, baseURL string, resolver folio.AssetResolver, assets *folio.AssetSet) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", folio.Errorf(folio.EINVALID, "failed to parse HTML: %v", err)
	}

	var sels []*goquery.Selection
	var refs []folio.ImageRef
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		sels = append(sels, sel)
		refs = append(refs, imageRef(sel))
	})

	resolved := make([]*folio.Asset, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			asset, err := resolver.Resolve(gctx, ref, baseURL, assets)
			if err != nil {
				slog.Debug("dropping unresolved image", "src", ref.Src, "error", err)
				return nil
			}
			resolved[i] = asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	for i, sel := range sels {
		if resolved[i] == nil {
			dropImage(sel)
			continue
		}
		rewriteImage(sel, resolved[i])
	}

	return doc.Find("body").Html()
}

// CollectImageRefs returns every image reference in html in document order,
// without resolving or rewriting anything.
func CollectImageRefs(html string) ([]folio.ImageRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, folio.Errorf(folio.EINVALID, "failed to parse HTML: %v", err)
	}
	var refs []folio.ImageRef
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		refs = append(refs, imageRef(sel))
	})
	return refs, nil
}

// imageRef gathers the URL-bearing attributes of one img element, including
// sibling picture sources and the enclosing anchor's href.
func imageRef(sel *goquery.Selection) folio.ImageRef {
	ref := folio.ImageRef{
		Src:        sel.AttrOr("src", ""),
		Srcset:     sel.AttrOr("srcset", ""),
		DataSrcset: sel.AttrOr("data-srcset", ""),
	}
	for _, attr := range lazyAttrs {
		if v := sel.AttrOr(attr, ""); v != "" {
			ref.DataSrc = v
			break
		}
	}

	// picture sources carry higher-resolution srcsets than the img fallback.
	sel.Closest("picture").Find("source").EachWithBreak(func(_ int, src *goquery.Selection) bool {
		if v := src.AttrOr("srcset", src.AttrOr("data-srcset", "")); v != "" && ref.DataSrcset == "" {
			ref.DataSrcset = v
			return false
		}
		return true
	})

	if anchor := sel.Closest("a"); anchor.Length() > 0 {
		ref.LinkHref = anchor.AttrOr("href", "")
	}
	return ref
}

// rewriteImage points the element at the asset and strips loader attributes
// so the bundled document never reaches back to the network.
func rewriteImage(sel *goquery.Selection, asset *folio.Asset) {
	sel.SetAttr("src", asset.Filename)
	for _, attr := range append([]string{"srcset", "data-srcset", "loading", "decoding", "sizes"}, lazyAttrs...) {
		sel.RemoveAttr(attr)
	}
	if picture := sel.Closest("picture"); picture.Length() > 0 {
		picture.Find("source").Remove()
	}
	if anchor := sel.Closest("a"); anchor.Length() > 0 {
		if href := anchor.AttrOr("href", ""); href != "" && folio.URLsMatch(href, asset.OriginURL) {
			anchor.SetAttr("href", asset.Filename)
		}
	}
}

// dropImage removes the element, taking an enclosing picture or figure with
// it when the image was its only content.
func dropImage(sel *goquery.Selection) {
	if picture := sel.Closest("picture"); picture.Length() > 0 {
		picture.Remove()
		return
	}
	figure := sel.Closest("figure")
	sel.Remove()
	if figure.Length() > 0 && strings.TrimSpace(figure.Text()) == "" && figure.Find("img").Length() == 0 {
		figure.Remove()
	}
}
