package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// TestDriveUploaderMirrorsTree walks a fresh output tree and verifies the
// folder handshake, the topic flattening, and that the root master JSON is
// left alone.
func TestDriveUploaderMirrorsTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTreeFile(t, root, "ART/dark_academia/dark_academia_pins.json", `[]`)
	writeTreeFile(t, root, "ART/dark_academia/images/pin1.jpg", "jpegbytes")
	writeTreeFile(t, root, "MUSIC/vinyl_shelf/vinyl_shelf_pins.json", `[]`)
	writeTreeFile(t, root, "all_pins.json", `[]`)
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".cache"), 0o750))

	fake := newFakeDriveService()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	uploader := newDriveUploader(newTestDriveService(t, srv), "https://drive.google.com/drive/folders/target123?usp=sharing", nil)
	require.Equal(t, "target123", uploader.targetID)

	results, err := uploader.UploadTree(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, Results{"ART": true, "MUSIC": true}, results)

	require.ElementsMatch(t,
		[]string{"dark_academia_pins.json", "pin1.jpg", "vinyl_shelf_pins.json"},
		fake.uploadedNames())

	artID := fake.folderID(t, "ART", "target123")
	topicID := fake.folderID(t, "dark_academia", artID)
	require.Equal(t, topicID, fake.uploadParent(t, "pin1.jpg"), "images flatten into the topic folder")
	require.Empty(t, fake.foldersNamed("images"))
	require.Empty(t, fake.foldersNamed(".cache"))
}

// TestDriveUploaderSkipsExisting verifies files and folders already present
// in Drive are reused rather than duplicated.
func TestDriveUploaderSkipsExisting(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTreeFile(t, root, "ART/dark_academia/images/pin1.jpg", "jpegbytes")

	fake := newFakeDriveService()
	artID := fake.addFolder("ART", "target123")
	topicID := fake.addFolder("dark_academia", artID)
	fake.addFile("pin1.jpg", topicID)

	srv := httptest.NewServer(fake)
	defer srv.Close()

	uploader := newDriveUploader(newTestDriveService(t, srv), "target123", nil)
	results, err := uploader.UploadTree(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, Results{"ART": true}, results)
	require.Empty(t, fake.uploadedNames())
	require.Zero(t, fake.folderCreates())
}

func TestFolderIDFromURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"folders url", "https://drive.google.com/drive/folders/1C9WuerzHjYkV5gka6EsB1p9_1bRlAPZy", "1C9WuerzHjYkV5gka6EsB1p9_1bRlAPZy"},
		{"folders url with query", "https://drive.google.com/drive/folders/1abc?usp=sharing", "1abc"},
		{"folders url trailing slash", "https://drive.google.com/drive/folders/1abc/", "1abc"},
		{"open id form", "https://drive.google.com/open?id=1xyz&authuser=0", "1xyz"},
		{"bare id", "1bare", "1bare"},
		{"bare id padded", " 1bare/ ", "1bare"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := FolderIDFromURL(tc.in); got != tc.want {
				t.Fatalf("FolderIDFromURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestResultsHelpers(t *testing.T) {
	t.Parallel()

	r := Results{"MUSIC": false, "ART": true, "FOOD": false, "DESIGN": true}
	require.Equal(t, []string{"FOOD", "MUSIC"}, r.Failed())
	require.Equal(t, 2, r.Succeeded())
}

func newTestDriveService(t *testing.T, srv *httptest.Server) *drive.Service {
	t.Helper()
	svc, err := drive.NewService(context.Background(),
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return svc
}

func writeTreeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// fakeDriveService emulates the two Drive endpoints the uploader touches:
// files.list / files.create on /files, and media creation on
// /upload/drive/v3/files.
type fakeDriveService struct {
	mu      sync.Mutex
	entries []driveEntry
	creates int
	uploads int
	nextID  int
}

type driveEntry struct {
	id       string
	name     string
	parent   string
	folder   bool
	uploaded bool
}

var (
	queryNameRe   = regexp.MustCompile(`name='([^']*)'`)
	queryParentRe = regexp.MustCompile(`'([^']+)' in parents`)
)

func newFakeDriveService() *fakeDriveService {
	return &fakeDriveService{}
}

func (f *fakeDriveService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/files" && r.Method == http.MethodGet:
		f.handleList(w, r)
	case r.URL.Path == "/files" && r.Method == http.MethodPost:
		f.handleCreateFolder(w, r)
	case r.URL.Path == "/upload/drive/v3/files" && r.Method == http.MethodPost:
		f.handleUpload(w, r)
	default:
		http.Error(w, fmt.Sprintf("unexpected call %s %s", r.Method, r.URL.Path), http.StatusNotFound)
	}
}

func (f *fakeDriveService) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	wantFolder := regexp.MustCompile(`mimeType='application/vnd\.google-apps\.folder'`).MatchString(q)
	var name, parent string
	if m := queryNameRe.FindStringSubmatch(q); m != nil {
		name = m[1]
	}
	if m := queryParentRe.FindStringSubmatch(q); m != nil {
		parent = m[1]
	}

	f.mu.Lock()
	var files []*drive.File
	for _, e := range f.entries {
		if e.folder != wantFolder {
			continue
		}
		if name != "" && e.name != name {
			continue
		}
		if parent != "" && e.parent != parent {
			continue
		}
		files = append(files, &drive.File{Id: e.id, Name: e.name})
	}
	f.mu.Unlock()

	writeJSON(w, &drive.FileList{Files: files})
}

func (f *fakeDriveService) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var meta drive.File
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if meta.MimeType != folderMimeType {
		http.Error(w, "metadata create without media must be a folder", http.StatusBadRequest)
		return
	}
	parent := ""
	if len(meta.Parents) > 0 {
		parent = meta.Parents[0]
	}

	f.mu.Lock()
	f.creates++
	id := f.assignID()
	f.entries = append(f.entries, driveEntry{id: id, name: meta.Name, parent: parent, folder: true})
	f.mu.Unlock()

	writeJSON(w, &drive.File{Id: id})
}

func (f *fakeDriveService) handleUpload(w http.ResponseWriter, r *http.Request) {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mr := multipart.NewReader(r.Body, params["boundary"])
	part, err := mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var meta drive.File
	if err := json.NewDecoder(part).Decode(&meta); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	media, err := mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := io.Copy(io.Discard, media); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	parent := ""
	if len(meta.Parents) > 0 {
		parent = meta.Parents[0]
	}

	f.mu.Lock()
	f.uploads++
	id := f.assignID()
	f.entries = append(f.entries, driveEntry{id: id, name: meta.Name, parent: parent, uploaded: true})
	f.mu.Unlock()

	writeJSON(w, &drive.File{Id: id})
}

// assignID must be called with f.mu held.
func (f *fakeDriveService) assignID() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeDriveService) addFolder(name, parent string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.assignID()
	f.entries = append(f.entries, driveEntry{id: id, name: name, parent: parent, folder: true})
	return id
}

func (f *fakeDriveService) addFile(name, parent string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, driveEntry{id: f.assignID(), name: name, parent: parent})
}

func (f *fakeDriveService) uploadedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		if e.uploaded {
			out = append(out, e.name)
		}
	}
	return out
}

func (f *fakeDriveService) folderCreates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func (f *fakeDriveService) foldersNamed(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		if e.folder && e.name == name {
			out = append(out, e.id)
		}
	}
	return out
}

func (f *fakeDriveService) folderID(t *testing.T, name, parent string) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.folder && e.name == name && e.parent == parent {
			return e.id
		}
	}
	t.Fatalf("folder %q under %q not found", name, parent)
	return ""
}

func (f *fakeDriveService) uploadParent(t *testing.T, name string) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.uploaded && e.name == name {
			return e.parent
		}
	}
	t.Fatalf("uploaded file %q not found", name)
	return ""
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
