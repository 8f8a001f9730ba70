package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/clyso/crt/internal/common"
	"github.com/clyso/crt/internal/model"
)

// PutPatchSet stores a patch set and its mbox blob. Pull request imports are
// deduplicated through the identity index: a second put of the same
// owner/repo/number/head-sha returns the UUID already stored, wrapped in a
// DuplicateContentError, and writes nothing.
func (s *Store) PutPatchSet(ps *model.PatchSet, mbox []byte) (string, error) {
	if ps.Kind == model.PatchSetSingle {
		return "", fmt.Errorf("legacy single patch sets are read-only")
	}
	if len(mbox) == 0 {
		return "", fmt.Errorf("patch set %s has no patch content", ps.Title)
	}
	if ps.UUID == "" {
		ps.UUID = common.GenerateUUID()
	}
	if ps.CreatedAt.IsZero() {
		ps.CreatedAt = time.Now().UTC()
	}

	if ps.Kind == model.PatchSetGH {
		return s.putIndexed(ps, mbox)
	}
	if err := s.writePatchSet(ps, mbox); err != nil {
		return "", err
	}
	return ps.UUID, nil
}

// putIndexed stores a PR patch set behind its identity key. The identity
// file is written last with O_EXCL, so a concurrent put of the same snapshot
// has exactly one winner; the loser discards its copy and reports the
// winner's UUID.
func (s *Store) putIndexed(ps *model.PatchSet, mbox []byte) (string, error) {
	key := ps.Key()
	if key.Owner == "" || key.Repo == "" || key.Number == 0 || key.HeadSHA == "" {
		return "", fmt.Errorf("patch set %s has an incomplete pull request key", ps.Title)
	}

	unlock := s.keys.acquire(key.String())
	defer unlock()

	if uuid, err := s.lookupKey(key); err == nil {
		return uuid, &DuplicateContentError{UUID: uuid, Key: key}
	} else if !IsNotFound(err) {
		return "", err
	}

	if err := s.writePatchSet(ps, mbox); err != nil {
		return "", err
	}

	keyDir := s.prKeyDir(key.Owner, key.Repo, key.Number)
	if err := os.MkdirAll(keyDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create index directory %s: %w", keyDir, err)
	}
	keyPath := s.identityPath(key)
	f, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if os.IsExist(err) {
		// Lost a cross-process race. Drop our copy and defer to the winner.
		os.Remove(s.patchPath(ps.UUID))
		os.Remove(s.patchMetaPath(ps.UUID))
		uuid, lerr := s.lookupKey(key)
		if lerr != nil {
			return "", lerr
		}
		return uuid, &DuplicateContentError{UUID: uuid, Key: key}
	}
	if err != nil {
		return "", fmt.Errorf("failed to create index entry %s: %w", keyPath, err)
	}
	if _, err := fmt.Fprintln(f, ps.UUID); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write index entry %s: %w", keyPath, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write index entry %s: %w", keyPath, err)
	}

	if err := s.pointLatest(keyDir, key.HeadSHA); err != nil {
		return "", err
	}
	return ps.UUID, nil
}

func (s *Store) writePatchSet(ps *model.PatchSet, mbox []byte) error {
	if err := writeAtomic(s.patchPath(ps.UUID), mbox, 0644); err != nil {
		return err
	}
	return writeJSON(s.patchMetaPath(ps.UUID), ps)
}

func (s *Store) identityPath(key model.PRKey) string {
	return filepath.Join(s.prKeyDir(key.Owner, key.Repo, key.Number), key.HeadSHA)
}

// pointLatest repoints the per-PR latest symlink at the given head sha
func (s *Store) pointLatest(keyDir, headSHA string) error {
	link := filepath.Join(keyDir, latestLink)
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to update %s: %w", link, err)
	}
	if err := os.Symlink(headSHA, link); err != nil {
		return fmt.Errorf("failed to update %s: %w", link, err)
	}
	return nil
}

func (s *Store) lookupKey(key model.PRKey) (string, error) {
	data, err := os.ReadFile(s.identityPath(key))
	if os.IsNotExist(err) {
		return "", &NotFoundError{What: "patch set", Ref: key.String()}
	}
	if err != nil {
		return "", fmt.Errorf("failed to read index entry for %s: %w", key, err)
	}
	uuid := strings.TrimSpace(string(data))
	if uuid == "" {
		return "", &CorruptError{Ref: key.String(), Detail: "empty index entry"}
	}
	return uuid, nil
}

// LookupPR resolves a PR reference to the stored patch set UUID. An empty
// headSHA follows the latest link for that PR.
func (s *Store) LookupPR(owner, repo string, number int, headSHA string) (string, error) {
	key := model.PRKey{Owner: owner, Repo: repo, Number: number, HeadSHA: headSHA}
	if headSHA == "" {
		target, err := os.Readlink(filepath.Join(s.prKeyDir(owner, repo, number), latestLink))
		if os.IsNotExist(err) {
			return "", &NotFoundError{What: "patch set", Ref: key.String()}
		}
		if err != nil {
			return "", fmt.Errorf("failed to resolve latest snapshot of %s: %w", key, err)
		}
		key.HeadSHA = target
	}
	return s.lookupKey(key)
}

// ListPRHistory returns every stored snapshot of a pull request, oldest
// first. An unknown PR yields an empty history, not an error.
func (s *Store) ListPRHistory(owner, repo string, number int) ([]*model.PatchSet, error) {
	dir := s.prKeyDir(owner, repo, number)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots of %s/%s#%d: %w", owner, repo, number, err)
	}

	var sets []*model.PatchSet
	for _, entry := range entries {
		if entry.Name() == latestLink {
			continue
		}
		uuid, err := s.lookupKey(model.PRKey{Owner: owner, Repo: repo, Number: number, HeadSHA: entry.Name()})
		if err != nil {
			return nil, err
		}
		ps, err := s.GetPatchSet(uuid)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ps)
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i].CreatedAt.Before(sets[j].CreatedAt)
	})
	return sets, nil
}

// GetPatchSet loads patch set metadata by UUID
func (s *Store) GetPatchSet(uuid string) (*model.PatchSet, error) {
	ps := &model.PatchSet{}
	if err := readJSON(s.patchMetaPath(uuid), ps); err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{What: "patch set", Ref: uuid}
		}
		return nil, err
	}
	return ps, nil
}

// GetPatchBlob returns the raw mbox content of a patch set. A missing blob
// for a UUID whose metadata exists means the store is damaged.
func (s *Store) GetPatchBlob(uuid string) ([]byte, error) {
	data, err := os.ReadFile(s.patchPath(uuid))
	if os.IsNotExist(err) {
		if _, merr := os.Stat(s.patchMetaPath(uuid)); merr == nil {
			return nil, &CorruptError{Ref: uuid, Detail: "metadata present but patch blob missing"}
		}
		return nil, &NotFoundError{What: "patch set", Ref: uuid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read patch blob %s: %w", uuid, err)
	}
	return data, nil
}

// ListPatchSets returns all stored patch sets, newest first
func (s *Store) ListPatchSets() ([]*model.PatchSet, error) {
	dir := filepath.Join(s.root, patchesDir, metaDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var sets []*model.PatchSet
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		uuid := strings.TrimSuffix(entry.Name(), ".json")
		ps, err := s.GetPatchSet(uuid)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ps)
	}

	sort.Slice(sets, func(i, j int) bool {
		if !sets[i].CreatedAt.Equal(sets[j].CreatedAt) {
			return sets[i].CreatedAt.After(sets[j].CreatedAt)
		}
		return sets[i].UUID < sets[j].UUID
	})
	return sets, nil
}
