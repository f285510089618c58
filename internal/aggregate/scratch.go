package aggregate

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Scratch is a run-scoped temporary directory for per-feature clip
// files. Close removes the whole tree; callers must defer it so scratch
// files never outlive the run, on failure included.
type Scratch struct {
	dir string
}

// NewScratch creates the run's scratch directory.
func NewScratch() (*Scratch, error) {
	dir, err := os.MkdirTemp("", "landstat-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: create scratch dir")
	}
	return &Scratch{dir: dir}, nil
}

// Path returns the scratch-relative path for name.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Close removes the scratch directory and everything in it.
func (s *Scratch) Close() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return eris.Wrap(err, "aggregate: remove scratch dir")
	}
	return nil
}
