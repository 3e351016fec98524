package xkcd

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "xkcdcrawl/pkg/errors"
)

// comicFromPage scrapes the comic's HTML page for the image reference.
// The site serves the comic inside a #comic container with the alt text in
// the image's title attribute and the title in #ctitle.
func (c *Client) comicFromPage(ctx context.Context, num int) (*ComicRecord, error) {
	resp, err := c.get(ctx, ComicPageURL(c.baseURL, num))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse comic %d page: %v", num, err),
			Cause:   err,
		}
	}

	img := doc.Find("#comic img").First()
	src, ok := img.Attr("src")
	if !ok || src == "" {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("comic %d page has no image reference", num),
		}
	}

	title := strings.TrimSpace(doc.Find("#ctitle").First().Text())
	altText, _ := img.Attr("title")

	return NewComicRecord(num, title, altText, absoluteImageURL(src)), nil
}

// absoluteImageURL resolves the protocol-relative src the page markup uses
func absoluteImageURL(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}
