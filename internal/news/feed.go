// Package news fetches gardening articles from RSS 2.0 and Atom feeds.
package news

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// DefaultFeed is used when no feeds are configured.
const DefaultFeed = "https://www.1garden.com/feed/"

// NoDescription is shown for items whose description is empty after cleanup.
const NoDescription = "No description available."

var ErrUnknownFormat = errors.New("unrecognised feed format")

// Item is one article from a feed.
type Item struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Published   time.Time `json:"published,omitzero"`
	Description string    `json:"description"`
	Feed        string    `json:"feed,omitempty"`
}

// Summary returns the description, or NoDescription when it is empty.
func (it Item) Summary() string {
	if it.Description == "" {
		return NoDescription
	}
	return it.Description
}

type rssDoc struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			PubDate     string `xml:"pubDate"`
			Description string `xml:"description"`
		} `xml:"item"`
	} `xml:"channel"`
}

type atomDoc struct {
	XMLName xml.Name `xml:"feed"`
	Entries []struct {
		Title     string         `xml:"title"`
		Links     []atomLinkElem `xml:"link"`
		Published string         `xml:"published"`
		Updated   string         `xml:"updated"`
		Summary   string         `xml:"summary"`
		Content   string         `xml:"content"`
	} `xml:"entry"`
}

// Parse decodes an RSS 2.0 or Atom document. Items keep document order.
func Parse(data []byte) ([]Item, error) {
	var probe struct{ XMLName xml.Name }
	if err := decodeXML(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	switch probe.XMLName.Local {
	case "rss":
		var doc rssDoc
		if err := decodeXML(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding rss: %w", err)
		}
		items := make([]Item, 0, len(doc.Channel.Items))
		for _, it := range doc.Channel.Items {
			items = append(items, Item{
				Title:       strings.TrimSpace(it.Title),
				Link:        strings.TrimSpace(it.Link),
				Published:   parseTime(it.PubDate),
				Description: StripHTML(it.Description),
			})
		}
		return items, nil

	case "feed":
		var doc atomDoc
		if err := decodeXML(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding atom: %w", err)
		}
		items := make([]Item, 0, len(doc.Entries))
		for _, e := range doc.Entries {
			published := e.Published
			if published == "" {
				published = e.Updated
			}
			desc := e.Summary
			if strings.TrimSpace(desc) == "" {
				desc = e.Content
			}
			items = append(items, Item{
				Title:       strings.TrimSpace(e.Title),
				Link:        atomLink(e.Links),
				Published:   parseTime(published),
				Description: StripHTML(desc),
			})
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: root element %q", ErrUnknownFormat, probe.XMLName.Local)
}

// decodeXML honours a non-UTF-8 encoding named in the XML declaration.
func decodeXML(data []byte, v any) error {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel
	return d.Decode(v)
}

type atomLinkElem struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

func atomLink(links []atomLinkElem) string {
	for _, l := range links {
		if l.Rel == "" || l.Rel == "alternate" {
			return l.Href
		}
	}
	if len(links) > 0 {
		return links[0].Href
	}
	return ""
}

var timeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// parseTime returns the zero time for dates it cannot read.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
