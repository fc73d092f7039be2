package drivers

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/foliotools/folio"
	"github.com/foliotools/folio/etree"
	foliogoquery "github.com/foliotools/folio/goquery"
)

var captionTracksRe = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

// captionTrack is one entry of the player response's caption track list.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`

	// Kind is "asr" for auto-generated tracks.
	Kind string `json:"kind"`
}

// YouTube builds a bundle from a video's transcript: the timed-text track is
// fetched, parsed into cues and rendered as timestamped paragraphs, with an
// optional generated summary in front.
type YouTube struct {
	Engine *Engine
}

var _ folio.Driver = (*YouTube)(nil)

func (d *YouTube) Name() string { return "youtube" }

func (d *YouTube) Build(ctx context.Context, src *folio.Source, opts folio.Options) (*folio.Bundle, error) {
	pageHTML, finalURL, err := d.Engine.page(ctx, src, folio.FetchOptions{})
	if err != nil {
		return nil, err
	}

	title := foliogoquery.ExtractTitle(pageHTML)
	if title == "" {
		title = "YouTube transcript"
	}

	track, err := pickCaptionTrack(pageHTML)
	if err != nil {
		return nil, err
	}

	res, err := d.Engine.Fetcher.Fetch(ctx, track.BaseURL, folio.FetchOptions{Kind: folio.PayloadBytes})
	if err != nil {
		return nil, err
	}
	cues, err := etree.ParseTranscript(string(res.Body))
	if err != nil {
		return nil, err
	}

	content := "<h1>" + title + "</h1>" + etree.TranscriptHTML(cues)
	if opts.Summary {
		if summary := d.Engine.summarize(ctx, etree.TranscriptText(cues)); summary != "" {
			content = summary + content
		}
	}

	bundle := newBundle(title, finalURL)
	bundle.Author = channelName(pageHTML)
	chapter := newChapter(title, "transcript.xhtml", content)
	chapter.IsArticle = true
	bundle.Chapters = append(bundle.Chapters, chapter)
	return bundle, nil
}

// pickCaptionTrack extracts the caption track list embedded in the watch
// page's player response and picks the best track: a manually authored
// English track over auto-generated English over whatever comes first.
func pickCaptionTrack(pageHTML string) (*captionTrack, error) {
	m := captionTracksRe.FindStringSubmatch(pageHTML)
	if m == nil {
		return nil, folio.Errorf(folio.ENOTFOUND, "video has no captions")
	}
	var tracks []captionTrack
	if err := json.Unmarshal([]byte(m[1]), &tracks); err != nil {
		return nil, folio.Errorf(folio.EINTERNAL, "decode caption tracks: %v", err)
	}
	if len(tracks) == 0 {
		return nil, folio.Errorf(folio.ENOTFOUND, "video has no captions")
	}

	best := &tracks[0]
	for i := range tracks {
		t := &tracks[i]
		if !strings.HasPrefix(t.LanguageCode, "en") {
			continue
		}
		if t.Kind != "asr" {
			best = t
			break
		}
		if !strings.HasPrefix(best.LanguageCode, "en") {
			best = t
		}
	}

	if best.BaseURL == "" {
		return nil, folio.Errorf(folio.ENOTFOUND, "caption track has no URL")
	}
	return best, nil
}

var channelNameRe = regexp.MustCompile(`"ownerChannelName":"((?:[^"\\]|\\.)*)"`)

func channelName(pageHTML string) string {
	m := channelNameRe.FindStringSubmatch(pageHTML)
	if m == nil {
		return ""
	}
	var name string
	if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &name); err != nil {
		return m[1]
	}
	return name
}
