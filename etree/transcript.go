// Package etree parses YouTube timedtext caption XML into transcript cues.
package etree

import (
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/foliotools/folio"
)

// Cue is one caption line with its position on the video timeline.
type Cue struct {
	Start time.Duration
	Dur   time.Duration
	Text  string
}

// ParseTranscript parses timedtext XML into cues. Both the legacy transcript
// format (text elements with start/dur seconds) and the srv3 format (p
// elements with t/d milliseconds) are understood. Empty cues are dropped.
func ParseTranscript(xml string) ([]Cue, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return nil, folio.Errorf(folio.EINVALID, "invalid timedtext XML: %v", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, folio.Errorf(folio.EINVALID, "empty timedtext document")
	}

	var cues []Cue
	for _, el := range root.FindElements("//text") {
		cue := Cue{
			Start: secondsAttr(el, "start"),
			Dur:   secondsAttr(el, "dur"),
			Text:  cleanCueText(el.Text()),
		}
		if cue.Text != "" {
			cues = append(cues, cue)
		}
	}
	if len(cues) > 0 {
		return cues, nil
	}

	for _, el := range root.FindElements("//p") {
		cue := Cue{
			Start: millisAttr(el, "t"),
			Dur:   millisAttr(el, "d"),
			Text:  cleanCueText(flattenText(el)),
		}
		if cue.Text != "" {
			cues = append(cues, cue)
		}
	}
	if len(cues) == 0 {
		return nil, folio.Errorf(folio.ENOTFOUND, "no caption cues in timedtext document")
	}
	return cues, nil
}

// TranscriptText joins cues into readable prose, one paragraph per gap of
// two seconds or more between cues.
func TranscriptText(cues []Cue) string {
	var b strings.Builder
	var prevEnd time.Duration
	for i, cue := range cues {
		if i > 0 {
			if cue.Start-prevEnd >= 2*time.Second {
				b.WriteString("\n\n")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(cue.Text)
		prevEnd = cue.Start + cue.Dur
	}
	return b.String()
}

// TranscriptHTML renders cues as paragraphs with timestamps.
func TranscriptHTML(cues []Cue) string {
	var b strings.Builder
	for _, para := range splitParagraphs(cues) {
		if len(para) == 0 {
			continue
		}
		b.WriteString(`<p><span class="timestamp">[`)
		b.WriteString(formatTimestamp(para[0].Start))
		b.WriteString(`]</span> `)
		for i, cue := range para {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(html.EscapeString(cue.Text))
		}
		b.WriteString("</p>\n")
	}
	return b.String()
}

func splitParagraphs(cues []Cue) [][]Cue {
	var paras [][]Cue
	var cur []Cue
	var prevEnd time.Duration
	for i, cue := range cues {
		if i > 0 && cue.Start-prevEnd >= 2*time.Second {
			paras = append(paras, cur)
			cur = nil
		}
		cur = append(cur, cue)
		prevEnd = cue.Start + cue.Dur
	}
	if len(cur) > 0 {
		paras = append(paras, cur)
	}
	return paras
}

func formatTimestamp(d time.Duration) string {
	total := int(d.Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return strconv.Itoa(h) + ":" + pad(m) + ":" + pad(s)
	}
	return strconv.Itoa(m) + ":" + pad(s)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func secondsAttr(el *etree.Element, name string) time.Duration {
	v, err := strconv.ParseFloat(el.SelectAttrValue(name, ""), 64)
	if err != nil {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}

func millisAttr(el *etree.Element, name string) time.Duration {
	v, err := strconv.Atoi(el.SelectAttrValue(name, ""))
	if err != nil {
		return 0
	}
	return time.Duration(v) * time.Millisecond
}

// flattenText concatenates the text of an element and its children (srv3
// wraps words in s elements).
func flattenText(el *etree.Element) string {
	var b strings.Builder
	b.WriteString(el.Text())
	for _, child := range el.ChildElements() {
		b.WriteString(flattenText(child))
		b.WriteString(child.Tail())
	}
	return b.String()
}

// cleanCueText unescapes entities and collapses the newlines YouTube inserts
// for caption line breaks.
func cleanCueText(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Join(strings.Fields(s), " ")
}
