// Package catalog holds the built-in topic catalog: search keywords grouped
// by aesthetic category. The harvester schedules one task per topic.
package catalog

import "strings"

// Topic pairs one search keyword with its owning category.
type Topic struct {
	Category string
	Query    string
}

// categoryOrder fixes run order; map iteration alone would make every run
// schedule topics differently.
var categoryOrder = []string{
	"STUDY_ACADEMIA",
	"FOOD_COOKING",
	"BOOKS_READING",
	"TRAVEL",
	"FITNESS_WELLNESS",
	"NATURE_OUTDOORS",
	"HOME_LIFESTYLE",
	"FASHION_STYLE",
	"ART_CULTURE",
	"COFFEE_CAFE",
	"PRODUCTIVITY_ORGANIZATION",
	"COZY_COMFORT",
	"BEAUTY_SKINCARE",
	"VINTAGE_NOSTALGIA",
	"SEASONS_HOLIDAYS",
	"JOURNALING_WRITING",
	"MUSIC_CREATIVE",
	"COUPLE",
	"ISLAMIC_MODEST_FASHION",
}

var topicsByCategory = map[string][]string{
	"STUDY_ACADEMIA": {
		"dark academia", "light academia", "chaotic academia", "studytok", "study motivation",
		"studygram", "coffee shop study", "library aesthetic", "desk organization",
		"handwritten notes", "vintage university", "note-taking aesthetic", "study with me",
		"bookshelf organization", "academic weapon", "productive morning", "study space",
		"lecture hall vibes", "fountain pen aesthetic", "bullet journal study", "study aesthetic",
	},
	"FOOD_COOKING": {
		"healthy food aesthetic", "smoothie bowl", "matcha aesthetic", "granola girl",
		"breakfast table", "cottage core food", "farmers market haul", "meal prep aesthetic",
		"baking aesthetic", "homemade bread", "pasta making", "salad bowls", "coffee aesthetic",
		"farmers daughter", "clean eating", "grocery haul aesthetic", "kitchen organization",
		"vintage cookbook", "recipe cards", "sourdough aesthetic", "picnic spread",
		"fruit arrangement", "cheese board aesthetic",
	},
	"BOOKS_READING": {
		"bookstok", "book and coffee", "reading nook", "annotated books", "bookshelf aesthetic",
		"vintage library", "poetry aesthetic", "bookstore vibes", "antique books",
		"leather-bound books", "reading by candlelight", "book stack", "bookworm aesthetic",
		"cozy reading corner", "book haul", "current reads", "reading journal", "literary quotes",
		"used bookstore", "book photography", "old book aesthetic",
	},
	"TRAVEL": {
		"European summer", "coastal grandmother", "Italian summer", "Greek island aesthetic",
		"Paris aesthetic", "cobblestone streets", "train travel", "airport aesthetic",
		"travel journal", "vintage luggage", "cafe hopping", "architecture photography",
		"city walking", "countryside aesthetic", "road trip vibes", "mountain views",
		"beach sunset", "travel outfit", "wanderlust aesthetic", "hidden gems", "local market",
		"street photography", "travel aesthetic",
	},
	"FITNESS_WELLNESS": {
		"clean girl aesthetic", "pilates princess", "gym aesthetic", "yoga flow", "morning run",
		"workout motivation", "athletic aesthetic", "gym fits", "activewear", "stretching routine",
		"pilates studio", "home workout", "fitness journey", "healthy habits", "self care routine",
		"wellness aesthetic", "mindful movement", "runner girl", "gym selfie", "workout mirror",
		"fitness aesthetic",
	},
	"NATURE_OUTDOORS": {
		"cottage core", "forest bathing", "hiking aesthetic", "sunrise walks", "flower fields",
		"botanical garden", "plant mom", "gardening aesthetic", "nature photography", "wildflowers",
		"autumn leaves", "coastal walks", "mountain hiking", "camping aesthetic", "stargazing",
		"nature journaling", "foraging aesthetic", "sunset views", "ocean waves", "park picnic",
	},
	"HOME_LIFESTYLE": {
		"clean girl morning", "morning routine", "that girl aesthetic", "romanticize your life",
		"slow living", "minimalist home", "cozy home", "candle aesthetic", "linen bedding",
		"morning coffee", "kitchen aesthetic", "plant corner", "vintage decor", "home organization",
		"cleaning motivation", "hygge vibes", "neutral aesthetic", "home cafe", "interior design",
		"vintage finds",
	},
	"FASHION_STYLE": {
		"clean girl", "coquette aesthetic", "balletcore", "old money aesthetic",
		"coastal grandmother", "French girl style", "capsule wardrobe", "minimal wardrobe",
		"thrifted finds", "vintage fashion", "outfit inspo", "neutral tones", "linen clothing",
		"timeless style", "classic pieces", "jewelry aesthetic", "minimalist jewelry",
		"vintage accessories", "wardrobe organization", "fashion archive", "faceless selfies",
	},
	"ART_CULTURE": {
		"museum aesthetic", "art gallery", "classical paintings", "Renaissance aesthetic",
		"sculpture garden", "art history", "vintage portraits", "poetry journal",
		"calligraphy aesthetic", "watercolor painting", "sketching aesthetic", "art studio",
		"creative process", "museum date", "gallery wall", "art books", "painting aesthetic",
		"drawing aesthetic", "vintage art prints", "art supplies", "classical painting aesthetic",
	},
	"COFFEE_CAFE": {
		"coffee shop aesthetic", "latte art", "espresso bar", "cafe hopping", "coffee at home",
		"vintage cafe", "European cafe", "morning coffee", "coffee table books",
		"cafe study session", "iced coffee aesthetic", "pastry and coffee", "coffee shop reading",
		"barista aesthetic", "pour over coffee", "cafe interior", "cafe breakfast", "coffee date",
		"local cafe",
	},
	"PRODUCTIVITY_ORGANIZATION": {
		"productive day", "morning pages", "to-do lists", "planner aesthetic", "digital planning",
		"desk setup", "workspace aesthetic", "organization hacks", "minimal desk",
		"calendar planning", "goal setting", "habit tracking", "productivity tips",
		"time blocking", "workspace tour", "stationery haul", "pen collection",
		"notebook aesthetic", "planning routine",
	},
	"COZY_COMFORT": {
		"rainy day aesthetic", "cozy corner", "blanket fort", "reading in bed", "candles and books",
		"autumn vibes", "winter cozy", "fireplace reading", "tea and books", "comfort food",
		"lazy Sunday", "sweater weather", "soft lighting", "warm drinks", "comfort shows",
		"cozy evenings", "peaceful morning", "quiet moments", "self care Sunday",
	},
	"BEAUTY_SKINCARE": {
		"clean beauty", "skincare routine", "morning skincare", "glass skin", "skincare fridge",
		"minimal makeup", "natural beauty", "skincare aesthetic", "bathroom organization",
		"product empties", "beauty routine", "self care rituals", "face masks", "gua sha routine",
		"skincare haul", "clean products", "bathroom aesthetic", "vanity organization",
	},
	"VINTAGE_NOSTALGIA": {
		"vintage aesthetic", "film photography", "old books", "antique finds", "thrift haul",
		"vintage camera", "retro vibes", "analog photography", "vintage postcards",
		"grandmother's house", "heirloom pieces", "vintage mirrors", "antique furniture",
		"film developing", "disposable camera", "vintage jewelry", "old letters",
		"family heirlooms", "nostalgic moments",
	},
	"SEASONS_HOLIDAYS": {
		"autumn aesthetic", "fall vibes", "pumpkin season", "spring flowers", "summer aesthetic",
		"winter wonderland", "holiday baking", "seasonal decor", "changing seasons",
		"autumn walks", "spring cleaning", "summer picnic", "winter reading", "seasonal cooking",
		"holiday prep", "cozy autumn", "fresh spring", "hot girl summer", "winter layers",
	},
	"JOURNALING_WRITING": {
		"journaling aesthetic", "morning pages", "creative writing", "poetry writing",
		"diary aesthetic", "vintage journal", "writing routine", "pen and paper", "journal spread",
		"daily reflection", "writing prompts", "handwriting aesthetic", "journal collection",
		"creative journaling", "writer aesthetic", "coffee and writing", "notebook collection",
		"ink and paper",
	},
	"MUSIC_CREATIVE": {
		"vinyl collection", "record player", "music aesthetic", "concert aesthetic", "indie music",
		"classical music", "piano aesthetic", "guitar aesthetic", "music journal", "album covers",
		"concert photos", "band posters", "music room", "vintage records", "cassette tapes",
		"music notes", "practicing aesthetic", "musician life",
	},
	"COUPLE": {
		"couple aesthetic",
	},
	"ISLAMIC_MODEST_FASHION": {
		"hijab fashion aesthetic", "abaya style aesthetic", "modest fashion aesthetic",
		"islamic art aesthetic", "islamic architecture aesthetic", "masjid aesthetic",
		"quranic calligraphy aesthetic", "ramadan aesthetic",
		"middle eastern aesthetic", "turkish aesthetic", "moroccan aesthetic",
		"arabic calligraphy aesthetic", "persian aesthetic", "iranian aesthetic",
		"minimalist modest fashion", "earthy tones aesthetic", "cottagecore modest",
		"academic modest style", "cozy modest home aesthetic",
		"islamic quotes aesthetic", "dua aesthetic", "spiritual growth aesthetic",
		"peaceful living aesthetic",
	},
}

// Categories returns the category names in catalog order.
func Categories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// TopicsFor returns the search keywords for one category, or nil if the
// category is unknown.
func TopicsFor(category string) []string {
	topics, ok := topicsByCategory[category]
	if !ok {
		return nil
	}
	out := make([]string, len(topics))
	copy(out, topics)
	return out
}

// All returns every (category, query) pair in catalog order.
func All() []Topic {
	var out []Topic
	for _, cat := range categoryOrder {
		for _, q := range topicsByCategory[cat] {
			out = append(out, Topic{Category: cat, Query: q})
		}
	}
	return out
}

// Count returns the total number of topics across all categories.
func Count() int {
	n := 0
	for _, topics := range topicsByCategory {
		n += len(topics)
	}
	return n
}

// NormalizeCategory maps user input to a catalog key: trimmed, upper-cased,
// with path separators flattened ("fashion/style" -> "FASHION_STYLE").
func NormalizeCategory(raw string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "/", "_"))
}

// Select resolves the category filter from configuration. "ALL" (any case)
// yields the full catalog; otherwise the filter is a comma-separated list of
// category names. Unknown names are returned separately so callers can warn
// instead of silently harvesting nothing.
func Select(filter string) (topics []Topic, unknown []string) {
	if strings.EqualFold(strings.TrimSpace(filter), "ALL") {
		return All(), nil
	}
	for _, raw := range strings.Split(filter, ",") {
		name := NormalizeCategory(raw)
		if name == "" {
			continue
		}
		qs, ok := topicsByCategory[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		for _, q := range qs {
			topics = append(topics, Topic{Category: name, Query: q})
		}
	}
	return topics, unknown
}
