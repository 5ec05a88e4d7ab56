package nfo

import "encoding/xml"

// UniqueID is the provider-scoped identifier element library readers match on.
type UniqueID struct {
	Type    string `xml:"type,attr"`
	Default string `xml:"default,attr"`
	Value   string `xml:",chardata"`
}

// TVShow is the channel-root tvshow.nfo document.
type TVShow struct {
	XMLName  xml.Name `xml:"tvshow"`
	Title    string   `xml:"title"`
	Plot     string   `xml:"plot,omitempty"`
	UniqueID UniqueID `xml:"uniqueid"`
	Studio   string   `xml:"studio"`
	Tags     []string `xml:"tag,omitempty"`
}

// Season is the year-folder season.nfo document. Plot, outline, and art stay
// present but empty.
type Season struct {
	XMLName   xml.Name `xml:"season"`
	Plot      string   `xml:"plot"`
	Outline   string   `xml:"outline"`
	DateAdded string   `xml:"dateadded"`
	Title     string   `xml:"title"`
	SeasonNum string   `xml:"season"`
	Art       struct{} `xml:"art"`
}

// Episode is the per-video episodedetails document.
type Episode struct {
	XMLName   xml.Name `xml:"episodedetails"`
	Title     string   `xml:"title"`
	ShowTitle string   `xml:"showtitle"`
	Plot      string   `xml:"plot,omitempty"`
	Language  string   `xml:"language,omitempty"`
	Aired     string   `xml:"aired,omitempty"`
	Year      string   `xml:"year,omitempty"`
	Runtime   int      `xml:"runtime,omitempty"`
	Director  string   `xml:"director,omitempty"`
	Studio    string   `xml:"studio"`
	UniqueID  UniqueID `xml:"uniqueid"`
	Genres    []string `xml:"genre,omitempty"`
	Tags      []string `xml:"tag,omitempty"`
	DateAdded string   `xml:"dateadded"`
}
