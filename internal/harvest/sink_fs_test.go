package harvest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPathLayout(t *testing.T) {
	t.Parallel()

	root := "out"
	require.Equal(t, filepath.Join("out", "STUDY_ACADEMIA", "dark_academia_study"),
		TopicDir(root, "STUDY_ACADEMIA", "dark academia study"))
	require.Equal(t, filepath.Join("out", "STUDY_ACADEMIA", "dark_academia_study", "dark_academia_study_pins.json"),
		TopicJSONPath(root, "STUDY_ACADEMIA", "dark academia study"))
	require.Equal(t, filepath.Join("out", "STUDY_ACADEMIA", "dark_academia_study", "images", "12345.jpg"),
		ImagePath(root, "STUDY_ACADEMIA", "dark academia study", "12345"))
	require.Equal(t, filepath.Join("out", "all_pins.json"), MasterJSONPath(root))
}

func TestFileSystemSinkWriteTopic(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sink, err := NewFileSystemSink(root, zap.NewNop())
	require.NoError(t, err)

	pins := []Pin{{
		ID:          "111",
		Title:       "Cozy desk",
		Description: "lamp & books",
		ImageURL:    "https://i.pinimg.com/236x/a.jpg?x=1&y=2",
		PinURL:      "https://www.pinterest.com/pin/111/",
		Category:    "STUDY_ACADEMIA",
		Topic:       "dark academia study",
		ScrapedAt:   time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC),
	}}

	path, err := sink.WriteTopic("STUDY_ACADEMIA", "dark academia study", pins)
	require.NoError(t, err)
	require.Equal(t, TopicJSONPath(root, "STUDY_ACADEMIA", "dark academia study"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	require.True(t, strings.HasPrefix(text, "[\n  {\n"), "output must be a two-space indented array")
	require.Contains(t, text, `"pin_id": "111"`)
	require.Contains(t, text, `"scraped_at": "2025-11-03T09:30:00Z"`)
	require.Contains(t, text, "https://i.pinimg.com/236x/a.jpg?x=1&y=2",
		"URLs must not be HTML-escaped")
	require.Contains(t, text, "lamp & books")
}

func TestFileSystemSinkWriteMaster(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sink, err := NewFileSystemSink(root, zap.NewNop())
	require.NoError(t, err)

	path, err := sink.WriteMaster(nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "all_pins.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(data), "an empty run still writes a valid array")
}

func TestFileSystemSinkOverwrites(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sink, err := NewFileSystemSink(root, zap.NewNop())
	require.NoError(t, err)

	_, err = sink.WriteTopic("C", "t", pinsFor("1", "2", "3"))
	require.NoError(t, err)
	path, err := sink.WriteTopic("C", "t", pinsFor("9"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"pin_id": "9"`)
	require.NotContains(t, string(data), `"pin_id": "1"`)
}
