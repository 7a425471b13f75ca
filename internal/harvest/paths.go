package harvest

import (
	"path/filepath"
	"strings"
)

// Output layout under the run root:
//
//	CATEGORY/topic_words/topic_words_pins.json
//	CATEGORY/topic_words/images/{pin_id}.jpg
//	all_pins.json
//
// Downstream tooling consumes this layout as-is, so the naming is fixed.

// underscoreTopic converts a topic query to its directory form.
func underscoreTopic(topic string) string {
	return strings.ReplaceAll(topic, " ", "_")
}

// TopicDir returns the directory holding one topic's records and images.
func TopicDir(root, category, topic string) string {
	return filepath.Join(root, category, underscoreTopic(topic))
}

// ImagesDir returns the directory holding one topic's downloaded assets.
func ImagesDir(root, category, topic string) string {
	return filepath.Join(TopicDir(root, category, topic), "images")
}

// ImagePath returns the on-disk location for one record's asset.
func ImagePath(root, category, topic, pinID string) string {
	return filepath.Join(ImagesDir(root, category, topic), pinID+".jpg")
}

// TopicJSONPath returns the per-topic records file location.
func TopicJSONPath(root, category, topic string) string {
	name := underscoreTopic(topic) + "_pins.json"
	return filepath.Join(TopicDir(root, category, topic), name)
}

// MasterJSONPath returns the run-wide records file location.
func MasterJSONPath(root string) string {
	return filepath.Join(root, "all_pins.json")
}
