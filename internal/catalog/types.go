package catalog

import (
	"fmt"
	"strings"
)

type Image struct {
	URL string `json:"url"`
}

// Album is identified by ID alone. The API can return slightly different
// payloads for the same album, so compare with SameAlbum rather than ==.
type Album struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Images       []Image           `json:"images"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// ImageURL returns the front image, or "" when the album has none.
func (a Album) ImageURL() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0].URL
}

// ExternalURL returns the album's Spotify link, falling back to the public
// web URL built from the id.
func (a Album) ExternalURL() string {
	if link := a.ExternalURLs["spotify"]; link != "" {
		return link
	}
	return fmt.Sprintf("https://open.spotify.com/album/%s", a.ID)
}

func SameAlbum(a, b Album) bool {
	return a.ID == b.ID
}

type Artist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Genres       []string          `json:"genres,omitempty"`
	Images       []Image           `json:"images,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// Track embeds a snapshot of its album. DurationMs is 0 when the API omits it.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Album      Album    `json:"album"`
	Artists    []Artist `json:"artists"`
	DurationMs int      `json:"duration_ms"`
	Explicit   bool     `json:"explicit"`
	Popularity int      `json:"popularity"`
}

// ArtistNames joins the contributing artists for display.
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

type searchResponse struct {
	Albums itemsResponse[Album] `json:"albums"`
}
