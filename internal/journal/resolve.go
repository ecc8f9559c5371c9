package journal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/devlog/internal/domain"
)

var (
	ErrNotFound  = errors.New("entry not found")
	ErrAmbiguous = errors.New("ambiguous id prefix")
)

// Resolve finds the entry whose id equals ref or, failing that, the single
// entry whose id starts with ref.
func (s *Store) Resolve(ref string) (domain.Entry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Entry{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(ref); i >= 0 {
		return s.entries[i], nil
	}

	var found []domain.Entry
	for _, e := range s.entries {
		if strings.HasPrefix(e.ID, ref) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return domain.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return found[0], nil
	}
	return domain.Entry{}, fmt.Errorf("%w: %s matches %d entries", ErrAmbiguous, ref, len(found))
}
