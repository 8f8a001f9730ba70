package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clyso/crt/internal/model"
)

// CreateRelease stores a new release. The name must be free.
func (s *Store) CreateRelease(r *model.Release) error {
	if err := r.Validate(); err != nil {
		return err
	}
	err := createJSON(s.releasePath(r.Name), r)
	if os.IsExist(err) {
		return &AlreadyExistsError{What: "release", Ref: r.Name}
	}
	return err
}

// UpdateRelease rewrites an existing release
func (s *Store) UpdateRelease(r *model.Release) error {
	if _, err := os.Stat(s.releasePath(r.Name)); os.IsNotExist(err) {
		return &NotFoundError{What: "release", Ref: r.Name}
	}
	return writeJSON(s.releasePath(r.Name), r)
}

// GetRelease loads a release by name
func (s *Store) GetRelease(name string) (*model.Release, error) {
	r := &model.Release{}
	if err := readJSON(s.releasePath(name), r); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{What: "release", Ref: name}
		}
		return nil, err
	}
	return r, nil
}

// ListReleases returns all releases, newest first
func (s *Store) ListReleases() ([]*model.Release, error) {
	dir := filepath.Join(s.root, releasesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var releases []*model.Release
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		r, err := s.GetRelease(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		releases = append(releases, r)
	}

	sort.Slice(releases, func(i, j int) bool {
		if !releases[i].CreatedAt.Equal(releases[j].CreatedAt) {
			return releases[i].CreatedAt.After(releases[j].CreatedAt)
		}
		return releases[i].Name < releases[j].Name
	})
	return releases, nil
}
