package harvest

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// FileSystemSink persists accepted records as indented JSON under the
// output root.
type FileSystemSink struct {
	root   string
	logger *zap.Logger
}

var _ ResultSink = (*FileSystemSink)(nil)

// NewFileSystemSink returns a sink rooted at dir, creating it if needed.
func NewFileSystemSink(root string, logger *zap.Logger) (*FileSystemSink, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create output root %s: %w", root, err)
	}
	return &FileSystemSink{root: root, logger: logger}, nil
}

// Root returns the sink's output root.
func (s *FileSystemSink) Root() string { return s.root }

// WriteTopic saves one topic's records and returns the file path.
func (s *FileSystemSink) WriteTopic(category, topic string, pins []Pin) (string, error) {
	dir := TopicDir(s.root, category, topic)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create topic dir %s: %w", dir, err)
	}
	path := TopicJSONPath(s.root, category, topic)
	if err := writePinsJSON(path, pins); err != nil {
		return "", err
	}
	s.logger.Debug("Wrote topic records", zap.String("path", path), zap.Int("pins", len(pins)))
	return path, nil
}

// WriteMaster saves the run-wide records file and returns its path.
func (s *FileSystemSink) WriteMaster(pins []Pin) (string, error) {
	path := MasterJSONPath(s.root)
	if err := writePinsJSON(path, pins); err != nil {
		return "", err
	}
	return path, nil
}

func writePinsJSON(path string, pins []Pin) error {
	// A topic with no pins still gets a valid empty array, not null.
	if pins == nil {
		pins = []Pin{}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pins); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
