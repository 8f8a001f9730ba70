package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clyso/crt/internal/model"
)

// CreateManifest stores a new manifest. A named manifest claims its alias
// through a by_name symlink; an alias already claimed by a different UUID is
// rejected.
func (s *Store) CreateManifest(m *model.Manifest) error {
	if m.UUID == "" {
		return fmt.Errorf("manifest needs a UUID")
	}
	if m.Name != "" {
		if !model.ValidName(m.Name) {
			return fmt.Errorf("invalid manifest name %q", m.Name)
		}
		target := filepath.Join("..", m.UUID+".json")
		link := s.manifestNamePath(m.Name)
		if existing, err := os.Readlink(link); err == nil {
			if existing != target {
				return &AlreadyExistsError{What: "manifest", Ref: m.Name}
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to check manifest name %s: %w", m.Name, err)
		} else if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("failed to claim manifest name %s: %w", m.Name, err)
		}
	}
	return writeJSON(s.manifestPath(m.UUID), m)
}

// SaveManifest rewrites an existing manifest
func (s *Store) SaveManifest(m *model.Manifest) error {
	if _, err := os.Stat(s.manifestPath(m.UUID)); os.IsNotExist(err) {
		return &NotFoundError{What: "manifest", Ref: m.UUID}
	}
	return writeJSON(s.manifestPath(m.UUID), m)
}

// GetManifest loads a manifest by UUID
func (s *Store) GetManifest(uuid string) (*model.Manifest, error) {
	m := &model.Manifest{}
	if err := readJSON(s.manifestPath(uuid), m); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{What: "manifest", Ref: uuid}
		}
		return nil, err
	}
	return m, nil
}

// GetManifestByName loads a manifest through its by_name link
func (s *Store) GetManifestByName(name string) (*model.Manifest, error) {
	target, err := os.Readlink(s.manifestNamePath(name))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{What: "manifest", Ref: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest name %s: %w", name, err)
	}
	uuid := strings.TrimSuffix(filepath.Base(target), ".json")
	m, err := s.GetManifest(uuid)
	if IsNotFound(err) {
		return nil, &CorruptError{Ref: name, Detail: fmt.Sprintf("name links to missing manifest %s", uuid)}
	}
	return m, err
}

// ListManifests returns manifests, newest first. A non-empty release filters
// to manifests of that release.
func (s *Store) ListManifests(release string) ([]*model.Manifest, error) {
	dir := filepath.Join(s.root, manifestsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var manifests []*model.Manifest
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		m, err := s.GetManifest(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		if release != "" && m.Release != release {
			continue
		}
		manifests = append(manifests, m)
	}

	sort.Slice(manifests, func(i, j int) bool {
		if !manifests[i].CreatedAt.Equal(manifests[j].CreatedAt) {
			return manifests[i].CreatedAt.After(manifests[j].CreatedAt)
		}
		return manifests[i].UUID < manifests[j].UUID
	})
	return manifests, nil
}
