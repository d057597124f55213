package talk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

// scratch tracks the temp files of one request. Every file the pipeline
// creates is registered here so purge can remove whatever is left on any
// exit path.
type scratch struct {
	dir    string
	prefix string
	files  []string
	logger *Logger.Logger
}

func newScratch(dir string, logger *Logger.Logger) *scratch {
	if dir == "" {
		dir = os.TempDir()
	}
	return &scratch{
		dir:    dir,
		prefix: fmt.Sprintf("cumulus-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8]),
		logger: logger,
	}
}

// path registers and returns a request-unique file path for suffix.
func (s *scratch) path(suffix string) string {
	p := filepath.Join(s.dir, s.prefix+"-"+suffix)
	s.files = append(s.files, p)
	return p
}

// remove deletes one registered file now and forgets it.
func (s *scratch) remove(path string) {
	for i, f := range s.files {
		if f == path {
			s.files = append(s.files[:i], s.files[i+1:]...)
			break
		}
	}
	s.delete(path)
}

// purge deletes every file still registered, logging each outcome separately.
func (s *scratch) purge() {
	for _, f := range s.files {
		s.delete(f)
	}
	s.files = nil
}

func (s *scratch) delete(path string) {
	err := os.Remove(path)
	switch {
	case err == nil:
		s.logger.Debugf("removed temp file %s", path)
	case errors.Is(err, fs.ErrNotExist):
		// never created, e.g. the stage that owns it failed first
	default:
		s.logger.Warnf("failed to remove temp file %s: %v", path, err)
	}
}
