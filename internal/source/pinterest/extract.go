package pinterest

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mirrorlake/pinharvest/internal/harvest"
)

// ParsePins pulls candidate records out of a grid snapshot. Tiles missing
// an image or a pin link are skipped; both are required downstream. Category
// and topic attribution are left to the caller.
func ParsePins(html string, scrapedAt time.Time) []harvest.Pin {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var pins []harvest.Pin
	doc.Find(`div[data-test-id="pin"]`).Each(func(_ int, tile *goquery.Selection) {
		imgSrc, _ := tile.Find(`img[src*="pinimg.com"]`).First().Attr("src")
		href, _ := tile.Find(`a[href*="/pin/"]`).First().Attr("href")
		id := harvest.PinIDFromHref(href)
		if imgSrc == "" || id == "" {
			return
		}

		pins = append(pins, harvest.Pin{
			ID:          id,
			Title:       strings.TrimSpace(tile.Find(`div[data-test-id="pin-title"]`).First().Text()),
			Description: strings.TrimSpace(tile.Find(`div[data-test-id="pin-description"]`).First().Text()),
			ImageURL:    imgSrc,
			PinURL:      harvest.AbsolutePinURL(href),
			ScrapedAt:   scrapedAt,
		})
	})
	return pins
}
