package classroom

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	ocrFile    = "ocr_results.txt"
	speechFile = "stt_results.txt"
)

// FileStore keeps the classroom context as two text files in one directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) SaveOCR(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return os.WriteFile(filepath.Join(f.dir, ocrFile), []byte(text), 0o644)
}

func (f *FileStore) LatestOCR(_ context.Context) (string, error) {
	return f.read(ocrFile)
}

func (f *FileStore) AppendSpeech(_ context.Context, line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fh, err := os.OpenFile(filepath.Join(f.dir, speechFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := fh.WriteString(line); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func (f *FileStore) SpeechLog(_ context.Context) (string, error) {
	return f.read(speechFile)
}

func (f *FileStore) read(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
