package resolve

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/foliotools/folio"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register webp decoding
)

// Image validation and optimization bounds.
const (
	// MinDimension rejects tracking pixels and decorative specks.
	MinDimension = 20

	// MaxDimension bounds the longest edge of an embedded image.
	MaxDimension = 1000

	// JPEGQuality is the re-encode quality for photographic content.
	JPEGQuality = 65

	// smallPassthrough skips decoding entirely for tiny payloads.
	smallPassthrough = 12 * 1024

	// pngKeepLimit preserves small PNGs (screenshots, diagrams) as-is.
	pngKeepLimit = 200 * 1024
)

// optimized is the outcome of validating and transcoding one image payload.
type optimized struct {
	mediaType string
	ext       string
	data      []byte
}

// optimizeImage validates the payload and re-encodes it within the configured
// bounds. Images below MinDimension are rejected as tracking pixels. Images
// above MaxDimension are first coarsely downscaled by an integer factor,
// which bounds CPU cost on huge originals, then resampled to the target
// bound. Already-small payloads, animated GIFs and small PNGs keep their
// original bytes; WebP sources keep theirs unless a resize forces a
// re-encode; everything else becomes quality-bounded JPEG.
func optimizeImage(data []byte) (*optimized, error) {
	if len(data) == 0 {
		return nil, folio.Errorf(folio.EINVALID, "empty image payload")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// SVG and other non-raster payloads pass through if small.
		if mediaType, ext := sniffImageType(data); mediaType != "" && len(data) < smallPassthrough {
			return &optimized{mediaType: mediaType, ext: ext, data: data}, nil
		}
		return nil, folio.Errorf(folio.EINVALID, "undecodable image: %v", err)
	}
	if cfg.Width < MinDimension || cfg.Height < MinDimension {
		return nil, folio.Errorf(folio.EINVALID, "image %dx%d below minimum dimension", cfg.Width, cfg.Height)
	}

	needsResize := cfg.Width > MaxDimension || cfg.Height > MaxDimension

	if !needsResize && len(data) < smallPassthrough {
		mediaType, ext := formatMedia(format)
		return &optimized{mediaType: mediaType, ext: ext, data: data}, nil
	}

	if format == "gif" {
		if g, err := gif.DecodeAll(bytes.NewReader(data)); err == nil && len(g.Image) > 1 {
			// Animated: resizing would mean re-composing every frame.
			return &optimized{mediaType: "image/gif", ext: ".gif", data: data}, nil
		}
	}
	if format == "webp" && !needsResize {
		return &optimized{mediaType: "image/webp", ext: ".webp", data: data}, nil
	}
	if format == "png" && !needsResize && len(data) < pngKeepLimit {
		return &optimized{mediaType: "image/png", ext: ".png", data: data}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, folio.Errorf(folio.EINVALID, "undecodable image: %v", err)
	}
	if needsResize {
		img = downscale(img)
	}

	if format == "png" && len(data) < pngKeepLimit {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, folio.Errorf(folio.EINTERNAL, "png encode: %v", err)
		}
		return &optimized{mediaType: "image/png", ext: ".png", data: buf.Bytes()}, nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, folio.Errorf(folio.EINTERNAL, "jpeg encode: %v", err)
	}
	return &optimized{mediaType: "image/jpeg", ext: ".jpg", data: buf.Bytes()}, nil
}

// downscale reduces img so both edges fit MaxDimension. Very large originals
// are first shrunk by an integer factor with nearest-neighbor sampling, then
// the final pass uses Catmull-Rom for quality.
func downscale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)

	if factor := longest / (MaxDimension * 2); factor > 1 {
		coarse := image.NewRGBA(image.Rect(0, 0, w/factor, h/factor))
		draw.NearestNeighbor.Scale(coarse, coarse.Bounds(), img, b, draw.Src, nil)
		img = coarse
		b = img.Bounds()
		w, h = b.Dx(), b.Dy()
		longest = max(w, h)
	}

	if longest <= MaxDimension {
		return img
	}
	scale := float64(MaxDimension) / float64(longest)
	outW := int(float64(w) * scale)
	outH := int(float64(h) * scale)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}

// flatten composites any transparency onto a white background, which JPEG
// requires.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

// formatMedia maps a registered image format name to its media type and
// filename extension.
func formatMedia(format string) (mediaType, ext string) {
	switch format {
	case "jpeg":
		return "image/jpeg", ".jpg"
	case "png":
		return "image/png", ".png"
	case "gif":
		return "image/gif", ".gif"
	case "webp":
		return "image/webp", ".webp"
	default:
		return "application/octet-stream", ""
	}
}

// sniffImageType recognizes the common embeddable formats by magic bytes.
func sniffImageType(data []byte) (mediaType, ext string) {
	switch {
	case len(data) > 3 && bytes.Equal(data[:3], []byte("\xff\xd8\xff")):
		return "image/jpeg", ".jpg"
	case len(data) > 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return "image/png", ".png"
	case len(data) > 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "image/gif", ".gif"
	case len(data) > 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp", ".webp"
	case len(data) > 5 && (bytes.HasPrefix(bytes.TrimSpace(data), []byte("<svg")) || bytes.HasPrefix(bytes.TrimSpace(data), []byte("<?xml"))):
		return "image/svg+xml", ".svg"
	default:
		return "", ""
	}
}
