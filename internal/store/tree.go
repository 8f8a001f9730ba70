package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/clyso/crt/internal/model"
)

// PublishTree rebuilds the browsable patch tree for a release from the
// committed stages of a manifest. Entries are relative symlinks into
// patches/, numbered consecutively across stage boundaries so the directory
// reads in apply order.
func (s *Store) PublishTree(release string, m *model.Manifest) error {
	base := s.treePath(release)
	if err := os.RemoveAll(base); err != nil {
		return fmt.Errorf("failed to clear tree for %s: %w", release, err)
	}

	n := 0
	for i := range m.Stages {
		stage := &m.Stages[i]
		if !stage.Committed {
			continue
		}
		dir := filepath.Join(base, stage.Label())
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create tree directory %s: %w", dir, err)
		}
		for _, uuid := range stage.PatchSets {
			ps, err := s.GetPatchSet(uuid)
			if err != nil {
				return err
			}
			n++
			name := fmt.Sprintf("%04d-%s.patch", n, ps.CanonicalTitle())
			target := filepath.Join("..", "..", "..", patchesDir, uuid+".patch")
			if err := os.Symlink(target, filepath.Join(dir, name)); err != nil {
				return fmt.Errorf("failed to link %s: %w", name, err)
			}
		}
	}
	return nil
}

// RemoveTree drops the browsable tree for a release
func (s *Store) RemoveTree(release string) error {
	if err := os.RemoveAll(s.treePath(release)); err != nil {
		return fmt.Errorf("failed to remove tree for %s: %w", release, err)
	}
	return nil
}
