package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/richardlehane/siegfried"
)

// SiegfriedIdentifier identifies file formats with a siegfried
// signature file, returning PRONOM ids such as "fmt/199".
type SiegfriedIdentifier struct {
	mutex sync.Mutex
	sf    *siegfried.Siegfried
}

// NewSiegfriedIdentifier loads the signature file at path, usually
// default.sig from the siegfried distribution.
func NewSiegfriedIdentifier(signaturePath string) (*SiegfriedIdentifier, error) {
	sf, err := siegfried.Load(signaturePath)
	if err != nil {
		return nil, fmt.Errorf("load siegfried signature %s: %w", signaturePath, err)
	}
	return &SiegfriedIdentifier{sf: sf}, nil
}

func (s *SiegfriedIdentifier) Identify(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	ids, err := s.sf.Identify(file, filepath.Base(path), "")
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		if id.Known() {
			return id.String(), nil
		}
	}
	return "", nil
}
