package pinterest

import "strings"

// blockWallMinBytes is the smallest snapshot a real grid produces. The
// interstitial block pages are tiny in comparison.
const blockWallMinBytes = 2048

var blockWallKeywords = []string{
	"verify you are a human",
	"access denied",
	"unusual traffic",
	"temporarily blocked",
}

// blockDetector spots interstitial pages served instead of the grid, so a
// blocked attempt fails fast instead of scrolling an empty shell until the
// stagnation limit trips.
type blockDetector struct {
	minHTMLBytes int
	keywords     []string
}

func newBlockDetector() *blockDetector {
	return &blockDetector{
		minHTMLBytes: blockWallMinBytes,
		keywords:     blockWallKeywords,
	}
}

// Blocked reports whether the snapshot looks like a block wall.
func (d *blockDetector) Blocked(html string) bool {
	if len(html) < d.minHTMLBytes {
		return true
	}
	lower := strings.ToLower(html)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
