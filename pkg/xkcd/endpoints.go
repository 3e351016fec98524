package xkcd

import "fmt"

const (
	// DefaultBaseURL is the base URL for the comic site
	DefaultBaseURL = "https://xkcd.com"

	// InfoDocument is the structured JSON document name
	InfoDocument = "info.0.json"
)

// ComicInfoURL constructs the structured endpoint URL for a comic number
func ComicInfoURL(baseURL string, num int) string {
	return fmt.Sprintf("%s/%d/%s", baseURL, num, InfoDocument)
}

// LatestInfoURL constructs the "latest comic" alias endpoint URL
func LatestInfoURL(baseURL string) string {
	return fmt.Sprintf("%s/%s", baseURL, InfoDocument)
}

// ComicPageURL constructs the HTML page URL for a comic number.
// The page is only fetched by the markup fallback strategy.
func ComicPageURL(baseURL string, num int) string {
	return fmt.Sprintf("%s/%d/", baseURL, num)
}
