package upload

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveConfig captures the parameters for the Google Drive backend.
type DriveConfig struct {
	// FolderURL is the destination folder as a Drive URL or a bare folder ID.
	FolderURL string
	// CredentialsFile optionally points at a service account JSON key. When
	// empty, application default credentials are used.
	CredentialsFile string
}

// DriveUploader mirrors the output tree into a Drive folder, one subfolder
// per category with topic subfolders beneath it. Files already present by
// name are skipped, so re-running an upload is cheap.
type DriveUploader struct {
	svc      *drive.Service
	targetID string
	logger   *zap.Logger

	mu      sync.Mutex
	folders map[string]string
}

// NewDriveUploader builds the Drive service and resolves the target folder.
func NewDriveUploader(ctx context.Context, cfg DriveConfig, logger *zap.Logger) (*DriveUploader, error) {
	if cfg.FolderURL == "" {
		return nil, fmt.Errorf("upload.drive_folder_url is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read drive credentials: %w", err)
		}
		jwtCfg, err := google.JWTConfigFromJSON(data, drive.DriveScope)
		if err != nil {
			return nil, fmt.Errorf("parse drive credentials: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(jwtCfg.Client(ctx)))
	} else {
		opts = append(opts, option.WithScopes(drive.DriveScope))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}
	return newDriveUploader(svc, cfg.FolderURL, logger), nil
}

// newDriveUploader wires an existing service (primarily for testing).
func newDriveUploader(svc *drive.Service, folderURL string, logger *zap.Logger) *DriveUploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriveUploader{
		svc:      svc,
		targetID: FolderIDFromURL(folderURL),
		logger:   logger,
		folders:  make(map[string]string),
	}
}

// UploadTree mirrors every category directory under root into the target
// folder. Dotted directories and loose files at the root are skipped.
func (u *DriveUploader) UploadTree(ctx context.Context, root string) (Results, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read output root: %w", err)
	}
	results := make(Results)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("upload tree: %w", err)
		}
		results[entry.Name()] = u.uploadCategory(ctx, filepath.Join(root, entry.Name()), entry.Name())
	}
	return results, nil
}

func (u *DriveUploader) uploadCategory(ctx context.Context, dir, name string) bool {
	u.logger.Info("Uploading category", zap.String("category", name))
	categoryID, err := u.findOrCreateFolder(ctx, name, u.targetID)
	if err != nil {
		u.logger.Warn("Category folder failed", zap.String("category", name), zap.Error(err))
		return false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		u.logger.Warn("Category read failed", zap.String("category", name), zap.Error(err))
		return false
	}

	uploaded, failed := 0, 0
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !entry.IsDir() {
			// Loose JSON at the category level is mirrored; anything else
			// at this level is not part of the output contract.
			if filepath.Ext(entry.Name()) == ".json" {
				if err := u.uploadFile(ctx, path, categoryID); err != nil {
					u.logger.Warn("Upload failed", zap.String("file", path), zap.Error(err))
					failed++
				} else {
					uploaded++
				}
			}
			continue
		}

		topicID, err := u.findOrCreateFolder(ctx, entry.Name(), categoryID)
		if err != nil {
			u.logger.Warn("Topic folder failed", zap.String("topic", entry.Name()), zap.Error(err))
			failed++
			continue
		}
		// Everything below the topic, the images subtree included, lands
		// flat in the topic folder; that is how consumers browse a topic.
		walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if err := u.uploadFile(ctx, p, topicID); err != nil {
				u.logger.Warn("Upload failed", zap.String("file", p), zap.Error(err))
				failed++
				return nil
			}
			uploaded++
			return nil
		})
		if walkErr != nil {
			u.logger.Warn("Topic walk failed", zap.String("topic", entry.Name()), zap.Error(walkErr))
			failed++
		}
	}

	u.logger.Info("Category upload complete",
		zap.String("category", name),
		zap.Int("uploaded", uploaded),
		zap.Int("failed", failed))
	return failed == 0
}

func (u *DriveUploader) uploadFile(ctx context.Context, path, folderID string) error {
	name := filepath.Base(path)
	query := fmt.Sprintf("name='%s' and '%s' in parents and trashed=false",
		escapeQuery(name), folderID)
	existing, err := u.list(ctx, query)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		u.logger.Debug("Already mirrored", zap.String("file", name))
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	meta := &drive.File{Name: name, Parents: []string{folderID}}
	if _, err := u.svc.Files.Create(meta).Media(f).Fields("id").Context(ctx).Do(); err != nil {
		return fmt.Errorf("create file %s: %w", name, err)
	}
	return nil
}

func (u *DriveUploader) findOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	key := parentID + "/" + name
	u.mu.Lock()
	if id, ok := u.folders[key]; ok {
		u.mu.Unlock()
		return id, nil
	}
	u.mu.Unlock()

	query := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false and '%s' in parents",
		folderMimeType, escapeQuery(name), parentID)
	found, err := u.list(ctx, query)
	if err != nil {
		return "", err
	}

	var id string
	if len(found) > 0 {
		id = found[0].Id
	} else {
		meta := &drive.File{Name: name, MimeType: folderMimeType, Parents: []string{parentID}}
		folder, err := u.svc.Files.Create(meta).Fields("id").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("create folder %s: %w", name, err)
		}
		id = folder.Id
		u.logger.Debug("Created folder", zap.String("name", name), zap.String("id", id))
	}

	u.mu.Lock()
	u.folders[key] = id
	u.mu.Unlock()
	return id, nil
}

func (u *DriveUploader) list(ctx context.Context, query string) ([]*drive.File, error) {
	res, err := u.svc.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive list: %w", err)
	}
	return res.Files, nil
}

// Drive query strings quote values with single quotes.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// FolderIDFromURL extracts the folder ID from the common Drive URL shapes:
// .../drive/folders/<id>, ...?id=<id>, or a bare ID.
func FolderIDFromURL(folderURL string) string {
	if idx := strings.Index(folderURL, "/folders/"); idx >= 0 {
		id := folderURL[idx+len("/folders/"):]
		if cut := strings.IndexAny(id, "?#"); cut >= 0 {
			id = id[:cut]
		}
		return strings.Trim(id, "/")
	}
	if idx := strings.Index(folderURL, "?id="); idx >= 0 {
		id := folderURL[idx+len("?id="):]
		if amp := strings.Index(id, "&"); amp >= 0 {
			id = id[:amp]
		}
		return id
	}
	return strings.Trim(strings.TrimSpace(folderURL), "/")
}
