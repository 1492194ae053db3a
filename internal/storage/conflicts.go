package storage

import "os"

// Conflicts returns the candidates that already exist as a file or
// directory. Candidates that escape the root, name the root itself, or
// repeat an earlier candidate are skipped. The result keeps input order.
//
// The answer is only valid at the moment it is computed: a concurrent
// upload can create a path right after it was reported free.
func (s *Store) Conflicts(candidates []string) []string {
	conflicts := make([]string, 0)
	seen := make(map[string]struct{}, len(candidates))

	for _, candidate := range candidates {
		abs, err := s.root.Resolve(candidate)
		if err != nil || abs == s.root.Dir() {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}

		if _, err := os.Lstat(abs); err == nil {
			conflicts = append(conflicts, candidate)
		}
	}
	return conflicts
}
