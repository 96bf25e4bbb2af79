package datafile

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// CSVMediaType is the declared type a file must carry to be uploaded.
const CSVMediaType = "text/csv"

// ErrNotCSV is returned when a selected file does not declare the CSV media type.
var ErrNotCSV = errors.New("please upload a valid CSV file")

// declared types by extension, the way a browser file picker reports them
var extensionTypes = map[string]string{
	".csv":  CSVMediaType,
	".tsv":  "text/tab-separated-values",
	".txt":  "text/plain",
	".json": "application/json",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// File is a local file chosen for upload.
type File struct {
	Name      string `json:"name" yaml:"name"`
	Path      string `json:"path" yaml:"path"`
	MediaType string `json:"media_type" yaml:"media_type"`
	Size      int64  `json:"size" yaml:"size"`
}

// Open stats path and resolves its media type. It does not reject non-CSV
// files; callers decide with IsCSV.
func Open(path string) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("file path cannot be empty")
	}
	if strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	mt, err := MediaType(path)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:      filepath.Base(path),
		Path:      path,
		MediaType: mt,
		Size:      info.Size(),
	}, nil
}

// IsCSV reports whether the declared media type is exactly text/csv.
func (f *File) IsCSV() bool {
	return f != nil && f.MediaType == CSVMediaType
}

// Reader opens the file content for streaming.
func (f *File) Reader() (io.ReadCloser, error) {
	rc, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return rc, nil
}

// MediaType declares a type from the extension when known and falls back to
// content sniffing otherwise. Parameters such as charset are dropped.
func MediaType(path string) (string, error) {
	if mt, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt, nil
	}
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect media type: %w", err)
	}
	mt, _, err := mime.ParseMediaType(m.String())
	if err != nil {
		return m.String(), nil
	}
	return mt, nil
}
