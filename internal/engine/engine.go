// Package engine drives the release/manifest/stage life cycle on top of the
// store. It owns every state transition; the store below it only persists.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/clyso/crt/internal/common"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/store"
)

// Storage is the slice of the store the engine consumes
type Storage interface {
	CreateRelease(r *model.Release) error
	UpdateRelease(r *model.Release) error
	GetRelease(name string) (*model.Release, error)
	ListReleases() ([]*model.Release, error)

	CreateManifest(m *model.Manifest) error
	SaveManifest(m *model.Manifest) error
	GetManifest(uuid string) (*model.Manifest, error)
	GetManifestByName(name string) (*model.Manifest, error)
	ListManifests(release string) ([]*model.Manifest, error)

	GetPatchSet(uuid string) (*model.PatchSet, error)
	PublishTree(release string, m *model.Manifest) error
}

// Client sequences life-cycle operations. Stage mutations of one manifest
// are serialized through a per-manifest lock, so two concurrent callers can
// never both open a stage.
type Client struct {
	store Storage

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(storage Storage) *Client {
	return &Client{store: storage, locks: make(map[string]*sync.Mutex)}
}

func (c *Client) lockManifest(uuid string) func() {
	c.mu.Lock()
	l, ok := c.locks[uuid]
	if !ok {
		l = &sync.Mutex{}
		c.locks[uuid] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ReleaseOptions carries the inputs for CreateRelease
type ReleaseOptions struct {
	Name    string
	BaseRef string
	Base    model.Repo
	Dst     model.Repo
	// From derives the release from an earlier one: unset base ref and
	// repositories are inherited, the base ref defaulting to the prior
	// release's terminal tag.
	From string
}

// CreateRelease creates and stores a new release
func (c *Client) CreateRelease(opts ReleaseOptions) (*model.Release, error) {
	r := &model.Release{
		Name:      opts.Name,
		BaseRef:   opts.BaseRef,
		BaseRepo:  opts.Base,
		DstRepo:   opts.Dst,
		CreatedAt: time.Now().UTC(),
	}
	if opts.From != "" {
		from, err := c.store.GetRelease(opts.From)
		if err != nil {
			return nil, err
		}
		r.FromRelease = from.Name
		if r.BaseRef == "" {
			r.BaseRef = from.TagName()
		}
		if r.BaseRepo.IsZero() {
			r.BaseRepo = from.BaseRepo
		}
		if r.DstRepo.IsZero() {
			r.DstRepo = from.DstRepo
		}
	}
	if err := c.store.CreateRelease(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Release loads a release by name
func (c *Client) Release(name string) (*model.Release, error) {
	return c.store.GetRelease(name)
}

// Releases lists all releases, newest first
func (c *Client) Releases() ([]*model.Release, error) {
	return c.store.ListReleases()
}

// activeRelease loads a release and rejects missing or finished ones
func (c *Client) activeRelease(name string) (*model.Release, error) {
	r, err := c.store.GetRelease(name)
	if store.IsNotFound(err) {
		return nil, &NoActiveReleaseError{Release: name}
	}
	if err != nil {
		return nil, err
	}
	if r.Finished {
		return nil, &NoActiveReleaseError{Release: name, Finished: true}
	}
	return r, nil
}

// CreateManifest creates a manifest under a release. A base manifest
// carries its committed stages forward by reference; patch content is
// shared, never copied. The caller opens a fresh stage before adding
// anything.
func (c *Client) CreateManifest(release, name, base string) (*model.Manifest, error) {
	r, err := c.activeRelease(release)
	if err != nil {
		return nil, err
	}

	m := &model.Manifest{
		UUID:      common.GenerateUUID(),
		Name:      name,
		Release:   r.Name,
		CreatedAt: time.Now().UTC(),
	}
	if base != "" {
		from, err := c.ResolveManifest(base)
		if err != nil {
			return nil, err
		}
		if from.Release != r.Name {
			return nil, &AmbiguousBaseError{Base: base, Release: r.Name, BaseRelease: from.Release}
		}
		m.FromName = from.Name
		m.FromUUID = from.UUID
		for i := range from.Stages {
			if !from.Stages[i].Committed {
				continue
			}
			stage := from.Stages[i]
			stage.PatchSets = append([]string(nil), from.Stages[i].PatchSets...)
			stage.Tags = append([]model.Tag(nil), from.Stages[i].Tags...)
			m.Stages = append(m.Stages, stage)
		}
	}
	if err := c.store.CreateManifest(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ResolveManifest resolves a manifest reference: UUID first, then alias
func (c *Client) ResolveManifest(ref string) (*model.Manifest, error) {
	m, err := c.store.GetManifest(ref)
	if err == nil {
		return m, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}
	m, nerr := c.store.GetManifestByName(ref)
	if store.IsNotFound(nerr) {
		return nil, &store.NotFoundError{What: "manifest", Ref: ref}
	}
	return m, nerr
}

// Manifests lists manifests, optionally restricted to one release
func (c *Client) Manifests(release string) ([]*model.Manifest, error) {
	return c.store.ListManifests(release)
}

// LatestManifest returns the most recently created manifest of a release
func (c *Client) LatestManifest(release string) (*model.Manifest, error) {
	manifests, err := c.store.ListManifests(release)
	if err != nil {
		return nil, err
	}
	if len(manifests) == 0 {
		return nil, &store.NotFoundError{What: "manifest", Ref: "for release " + release}
	}
	return manifests[0], nil
}

// OpenStage opens a new stage on a manifest. Exactly one stage can be open
// at a time.
func (c *Client) OpenStage(manifestRef string, author model.Author, tags []model.Tag) (*model.Stage, *model.Manifest, error) {
	if author.Name == "" || author.Email == "" {
		return nil, nil, fmt.Errorf("stage author needs both name and email, got %q", author.String())
	}

	m, err := c.ResolveManifest(manifestRef)
	if err != nil {
		return nil, nil, err
	}
	unlock := c.lockManifest(m.UUID)
	defer unlock()

	// reload under the lock so the open-stage check is race-free
	m, err = c.store.GetManifest(m.UUID)
	if err != nil {
		return nil, nil, err
	}
	if active := m.ActiveStage(); active != nil {
		return nil, nil, &StageAlreadyOpenError{Manifest: m.DisplayName(), Stage: active.Label()}
	}

	m.Stages = append(m.Stages, model.Stage{
		UUID:      common.GenerateUUID(),
		Author:    author,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	})
	if err := c.store.SaveManifest(m); err != nil {
		return nil, nil, err
	}
	stage := &m.Stages[len(m.Stages)-1]
	return stage, m, nil
}

// resolveStage locates a stage by UUID, or the open stage when ref is empty
func resolveStage(m *model.Manifest, ref string) (*model.Stage, error) {
	if ref == "" {
		stage := m.ActiveStage()
		if stage == nil {
			return nil, &NoOpenStageError{Manifest: m.DisplayName()}
		}
		return stage, nil
	}
	if stage := m.Stage(ref); stage != nil {
		return stage, nil
	}
	return nil, &store.NotFoundError{What: "stage", Ref: ref}
}

// AddPatchSet appends a stored patch set to an open stage. Append order is
// the apply order; there is no reordering.
func (c *Client) AddPatchSet(manifestRef, stageRef, patchSetUUID string) (*model.Manifest, error) {
	m, err := c.ResolveManifest(manifestRef)
	if err != nil {
		return nil, err
	}
	unlock := c.lockManifest(m.UUID)
	defer unlock()

	m, err = c.store.GetManifest(m.UUID)
	if err != nil {
		return nil, err
	}
	stage, err := resolveStage(m, stageRef)
	if err != nil {
		return nil, err
	}
	if stage.Committed {
		return nil, &StageCommittedError{Stage: stage.Label()}
	}
	if _, err := c.store.GetPatchSet(patchSetUUID); err != nil {
		if store.IsNotFound(err) {
			return nil, &UnknownPatchSetError{UUID: patchSetUUID}
		}
		return nil, err
	}
	for _, uuid := range m.EffectiveSequence() {
		if uuid == patchSetUUID {
			return nil, fmt.Errorf("patch set %s is already part of manifest %s", model.ShortUUID(patchSetUUID), m.DisplayName())
		}
	}

	stage.PatchSets = append(stage.PatchSets, patchSetUUID)
	if err := c.store.SaveManifest(m); err != nil {
		return nil, err
	}
	return m, nil
}

// CommitStage freezes a stage and republishes the release's patch tree
func (c *Client) CommitStage(manifestRef, stageRef string) (*model.Stage, *model.Manifest, error) {
	m, err := c.ResolveManifest(manifestRef)
	if err != nil {
		return nil, nil, err
	}
	unlock := c.lockManifest(m.UUID)
	defer unlock()

	m, err = c.store.GetManifest(m.UUID)
	if err != nil {
		return nil, nil, err
	}
	stage, err := resolveStage(m, stageRef)
	if err != nil {
		return nil, nil, err
	}
	if stage.Committed {
		return nil, nil, &StageCommittedError{Stage: stage.Label()}
	}
	if len(stage.PatchSets) == 0 {
		return nil, nil, &EmptyStageError{Stage: stage.Label()}
	}

	stage.Committed = true
	stage.CommittedAt = time.Now().UTC()
	if err := c.store.SaveManifest(m); err != nil {
		return nil, nil, err
	}
	if err := c.store.PublishTree(m.Release, m); err != nil {
		return nil, nil, fmt.Errorf("stage committed but tree publication failed: %w", err)
	}
	return stage, m, nil
}

// AbortStage drops an open stage without committing it
func (c *Client) AbortStage(manifestRef, stageRef string) error {
	m, err := c.ResolveManifest(manifestRef)
	if err != nil {
		return err
	}
	unlock := c.lockManifest(m.UUID)
	defer unlock()

	m, err = c.store.GetManifest(m.UUID)
	if err != nil {
		return err
	}
	stage, err := resolveStage(m, stageRef)
	if err != nil {
		return err
	}
	if stage.Committed {
		return &StageCommittedError{Stage: stage.Label()}
	}

	m.Stages = m.Stages[:len(m.Stages)-1]
	return c.store.SaveManifest(m)
}

// AmendStage updates the author or tags of a stage. Both stay amendable
// after commit; the patch set sequence does not.
func (c *Client) AmendStage(manifestRef, stageRef string, author *model.Author, tags []model.Tag) (*model.Stage, error) {
	m, err := c.ResolveManifest(manifestRef)
	if err != nil {
		return nil, err
	}
	unlock := c.lockManifest(m.UUID)
	defer unlock()

	m, err = c.store.GetManifest(m.UUID)
	if err != nil {
		return nil, err
	}
	stage, err := resolveStage(m, stageRef)
	if err != nil {
		return nil, err
	}
	if author != nil {
		if author.Name == "" || author.Email == "" {
			return nil, fmt.Errorf("stage author needs both name and email, got %q", author.String())
		}
		stage.Author = *author
	}
	if tags != nil {
		stage.Tags = tags
	}
	if err := c.store.SaveManifest(m); err != nil {
		return nil, err
	}
	return stage, nil
}

// MarkPublished records a successful non-exploratory branch push
func (c *Client) MarkPublished(manifestUUID string) error {
	unlock := c.lockManifest(manifestUUID)
	defer unlock()

	m, err := c.store.GetManifest(manifestUUID)
	if err != nil {
		return err
	}
	if m.Published {
		return nil
	}
	m.Published = true
	return c.store.SaveManifest(m)
}

// CheckFinishable verifies a release can still be finished
func (c *Client) CheckFinishable(release string) (*model.Release, error) {
	r, err := c.store.GetRelease(release)
	if err != nil {
		return nil, err
	}
	if r.Finished {
		return nil, &AlreadyFinishedError{Release: r.Name, Manifest: model.ShortUUID(r.FinishedManifest)}
	}
	return r, nil
}

// MarkFinished records the terminal manifest of a release after its tag has
// been pushed. Finishing twice is an integrity violation, never a no-op.
func (c *Client) MarkFinished(release, manifestUUID string) error {
	r, err := c.CheckFinishable(release)
	if err != nil {
		return err
	}
	r.Finished = true
	r.FinishedManifest = manifestUUID
	if err := c.store.UpdateRelease(r); err != nil {
		return err
	}
	return c.MarkPublished(manifestUUID)
}
