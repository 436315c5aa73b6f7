package revocation

import "fmt"

// DumpEntries dumps the raw map so tests can assert on what is held.
func DumpEntries(s *MemoryStore) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("%v", s.entries)
}
