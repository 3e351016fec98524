package xkcd

import (
	"net/url"
	"path"

	"xkcdcrawl/pkg/naming"
)

// ComicInfo is the structured document served by the info.0.json endpoint
type ComicInfo struct {
	Num        int    `json:"num"`
	Title      string `json:"title"`
	SafeTitle  string `json:"safe_title"`
	Alt        string `json:"alt"`
	Img        string `json:"img"`
	Link       string `json:"link"`
	News       string `json:"news"`
	Transcript string `json:"transcript"`
	Day        string `json:"day"`
	Month      string `json:"month"`
	Year       string `json:"year"`
}

// ComicRecord is the common shape both retrieval strategies resolve to
type ComicRecord struct {
	Num       int
	Title     string
	AltText   string
	ImageURL  string
	Extension string
	Filename  string
}

// DefaultExtension is used when the image URL carries no recognizable suffix
const DefaultExtension = ".png"

// NewComicRecord builds a record from raw comic fields, deriving the
// file extension from the image URL and the local filename from
// (num, title, extension).
func NewComicRecord(num int, title, altText, imageURL string) *ComicRecord {
	ext := ExtensionFromURL(imageURL)
	return &ComicRecord{
		Num:       num,
		Title:     title,
		AltText:   altText,
		ImageURL:  imageURL,
		Extension: ext,
		Filename:  naming.ImageFilename(num, title, ext),
	}
}

// ExtensionFromURL derives the file extension from the path suffix of an
// image URL, falling back to DefaultExtension
func ExtensionFromURL(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return DefaultExtension
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return DefaultExtension
}
