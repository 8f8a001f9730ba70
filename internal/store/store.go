// Package store persists releases, manifests, and patch sets on disk.
//
// Layout under the store root:
//
//	releases/<name>.json
//	manifests/<uuid>.json
//	manifests/by_name/<name>.json -> ../<uuid>.json
//	patches/<uuid>.patch
//	patches/meta/<uuid>.json
//	patches/meta/<owner>/<repo>/<pr>/<head-sha>
//	patches/meta/<owner>/<repo>/<pr>/latest -> <head-sha>
//	tree/<release>/<stage-label>/NNNN-<title>.patch -> ../../../patches/<uuid>.patch
//
// Patch sets are content addressed by UUID. Pull request imports additionally
// maintain an identity index keyed by owner/repo/number/head-sha so the same
// PR snapshot is never stored twice.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	releasesDir  = "releases"
	manifestsDir = "manifests"
	byNameDir    = "by_name"
	patchesDir   = "patches"
	metaDir      = "meta"
	treeDir      = "tree"

	latestLink = "latest"
)

// Store is a file-backed patch store rooted at a single directory
type Store struct {
	root string

	// keys serializes puts that race on the same PR identity.
	keys keyLocks
}

// New opens the store at root, creating the directory skeleton if needed
func New(root string) (*Store, error) {
	s := &Store{root: root}
	for _, dir := range []string{
		root,
		filepath.Join(root, releasesDir),
		filepath.Join(root, manifestsDir),
		filepath.Join(root, manifestsDir, byNameDir),
		filepath.Join(root, patchesDir),
		filepath.Join(root, patchesDir, metaDir),
		filepath.Join(root, treeDir),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// Root returns the store root directory
func (s *Store) Root() string {
	return s.root
}

func (s *Store) releasePath(name string) string {
	return filepath.Join(s.root, releasesDir, name+".json")
}

func (s *Store) manifestPath(uuid string) string {
	return filepath.Join(s.root, manifestsDir, uuid+".json")
}

func (s *Store) manifestNamePath(name string) string {
	return filepath.Join(s.root, manifestsDir, byNameDir, name+".json")
}

func (s *Store) patchPath(uuid string) string {
	return filepath.Join(s.root, patchesDir, uuid+".patch")
}

func (s *Store) patchMetaPath(uuid string) string {
	return filepath.Join(s.root, patchesDir, metaDir, uuid+".json")
}

func (s *Store) prKeyDir(owner, repo string, number int) string {
	return filepath.Join(s.root, patchesDir, metaDir, owner, repo, fmt.Sprintf("%d", number))
}

func (s *Store) treePath(release string) string {
	return filepath.Join(s.root, treeDir, release)
}

// readJSON loads a JSON file into v
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v atomically: temp file in the same directory, then rename.
// Readers never observe a partially written object.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	return writeAtomic(path, data, 0644)
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s to %s: %w", tmpName, path, err)
	}
	return nil
}

// createJSON writes v to path with O_EXCL; it fails if the file exists
func createJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// keyLocks hands out one mutex per string key
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyLocks) acquire(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
