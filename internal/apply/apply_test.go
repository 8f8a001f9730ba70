package apply

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clyso/crt/internal/common"
	"github.com/clyso/crt/internal/engine"
	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/git"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/store"
	"github.com/clyso/crt/internal/testutil"
)

type fixture struct {
	store    *store.Store
	mat      *Materializer
	work     *git.Client
	upstream string
	dst      string
	release  *model.Release
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	upstream := testutil.InitRepo(t)
	testutil.Git(t, upstream, "tag", "-a", "v19.2.0", "-m", "v19.2.0")
	dst := testutil.InitBareRepo(t)

	workDir := testutil.CloneRepo(t, upstream)
	work, err := git.NewClient(workDir)
	require.NoError(t, err)

	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	baseRepo, err := model.ParseRepo("ceph/ceph")
	require.NoError(t, err)
	dstRepo, err := model.ParseRepo("clyso/ceph")
	require.NoError(t, err)

	return &fixture{
		store:    st,
		mat:      New(st, work),
		work:     work,
		upstream: upstream,
		dst:      dst,
		release: &model.Release{
			Name:     "ces-v19.2.0",
			BaseRef:  "v19.2.0",
			BaseRepo: baseRepo,
			DstRepo:  dstRepo,
		},
	}
}

// opts wires the managed remotes to the local fixture repositories
func (f *fixture) opts() Options {
	return Options{BaseURL: f.upstream, DstURL: f.dst}
}

// patchSet commits the given files on a scratch branch off the base tag and
// stores the resulting mailbox as a custom patch set
func (f *fixture) patchSet(t *testing.T, title string, commits ...map[string]string) string {
	t.Helper()
	clone := testutil.CloneRepo(t, f.upstream)
	testutil.Git(t, clone, "checkout", "-b", "scratch", "v19.2.0")
	for _, files := range commits {
		for name, content := range files {
			testutil.WriteFile(t, clone, name, content)
		}
		testutil.Git(t, clone, "add", ".")
		testutil.Git(t, clone, "commit", "-m", title)
	}
	blob := testutil.FormatPatch(t, clone, "v19.2.0..HEAD")

	ps := &model.PatchSet{Kind: model.PatchSetCustom, Title: title}
	uuid, err := f.store.PutPatchSet(ps, blob)
	require.NoError(t, err)
	return uuid
}

func (f *fixture) manifest(stages ...model.Stage) *model.Manifest {
	return &model.Manifest{
		UUID:    common.GenerateUUID(),
		Release: f.release.Name,
		Stages:  stages,
	}
}

func committedStage(tag model.Tag, patchSets ...string) model.Stage {
	return model.Stage{
		UUID:      common.GenerateUUID(),
		Author:    model.Author{Name: "Test Dev", Email: "test@example.com"},
		Tags:      []model.Tag{tag},
		PatchSets: patchSets,
		Committed: true,
	}
}

func TestMaterialize(t *testing.T) {
	f := newFixture(t)
	first := f.patchSet(t, "osd: fix scrub",
		map[string]string{"osd.txt": "scrub fixed\n"},
		map[string]string{"osd.txt": "scrub fixed twice\n"},
	)
	second := f.patchSet(t, "mon: quorum", map[string]string{"mon.txt": "quorum\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, first, second))

	result, err := f.mat.Materialize(f.release, m, f.opts())
	require.NoError(t, err)

	assert.Equal(t, "ces-v19.2.0-rc.1", result.Branch)
	assert.Equal(t, 2, result.PatchSets)
	assert.Equal(t, 3, result.Patches)
	assert.False(t, result.Pushed)
	assert.NotEmpty(t, result.Commit)

	workDir := f.work.WorkDir()
	assert.Equal(t, result.Commit, testutil.Git(t, workDir, "rev-parse", result.Branch))
	assert.Equal(t, "scrub fixed twice", testutil.Git(t, workDir, "show", result.Branch+":osd.txt"))
	assert.Equal(t, "quorum", testutil.Git(t, workDir, "show", result.Branch+":mon.txt"))

	subjects := testutil.Git(t, workDir, "log", "--format=%s", "v19.2.0.."+result.Branch)
	assert.Equal(t, []string{"mon: quorum", "osd: fix scrub", "osd: fix scrub"}, strings.Split(subjects, "\n"))
}

func TestMaterializeSameTreeOnRerun(t *testing.T) {
	f := newFixture(t)
	ps := f.patchSet(t, "osd: fix scrub", map[string]string{"osd.txt": "scrub fixed\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, ps))

	first, err := f.mat.Materialize(f.release, m, f.opts())
	require.NoError(t, err)
	firstTree := testutil.Git(t, f.work.WorkDir(), "rev-parse", first.Branch+"^{tree}")

	second, err := f.mat.Materialize(f.release, m, f.opts())
	require.NoError(t, err)
	secondTree := testutil.Git(t, f.work.WorkDir(), "rev-parse", second.Branch+"^{tree}")

	assert.Equal(t, first.Branch, second.Branch)
	assert.Equal(t, firstTree, secondTree)
}

func TestMaterializeReplacesBranch(t *testing.T) {
	f := newFixture(t)
	first := f.patchSet(t, "osd: fix scrub", map[string]string{"osd.txt": "scrub fixed\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, first))

	_, err := f.mat.Materialize(f.release, m, f.opts())
	require.NoError(t, err)

	second := f.patchSet(t, "mon: quorum", map[string]string{"mon.txt": "quorum\n"})
	m.Stages[0].PatchSets = append(m.Stages[0].PatchSets, second)

	result, err := f.mat.Materialize(f.release, m, f.opts())
	require.NoError(t, err)
	assert.Equal(t, 2, result.PatchSets)
	assert.Equal(t, "quorum", testutil.Git(t, f.work.WorkDir(), "show", result.Branch+":mon.txt"))
}

func TestMaterializeBranchNameAcrossStages(t *testing.T) {
	f := newFixture(t)
	first := f.patchSet(t, "osd: fix scrub", map[string]string{"osd.txt": "scrub fixed\n"})
	second := f.patchSet(t, "mon: quorum", map[string]string{"mon.txt": "quorum\n"})
	m := f.manifest(
		committedStage(model.Tag{Name: "rc", N: 1}, first),
		committedStage(model.Tag{Name: "rc", N: 2}, second),
	)

	result, err := f.mat.Materialize(f.release, m, f.opts())
	require.NoError(t, err)
	assert.Equal(t, "ces-v19.2.0-rc.1-rc.2", result.Branch)
	assert.Equal(t, 2, result.PatchSets)
}

// Carry-forward end to end: a manifest copied from a committed one plus a
// fresh stage materializes all patch sets in stage order under the combined
// label.
func TestMaterializeCarryForward(t *testing.T) {
	f := newFixture(t)
	eng := engine.New(f.store)
	_, err := eng.CreateRelease(engine.ReleaseOptions{
		Name:    f.release.Name,
		BaseRef: f.release.BaseRef,
		Base:    f.release.BaseRepo,
		Dst:     f.release.DstRepo,
	})
	require.NoError(t, err)

	p1 := f.patchSet(t, "osd: fix scrub", map[string]string{"osd.txt": "scrub fixed\n"})
	p2 := f.patchSet(t, "mon: quorum", map[string]string{"mon.txt": "quorum\n"})
	p3 := f.patchSet(t, "mgr: dashboard", map[string]string{"mgr.txt": "dashboard\n"})

	dev := model.Author{Name: "Test Dev", Email: "test@example.com"}
	m1, err := eng.CreateManifest(f.release.Name, "m1", "")
	require.NoError(t, err)
	_, _, err = eng.OpenStage(m1.UUID, dev, []model.Tag{{Name: "rc", N: 1}})
	require.NoError(t, err)
	_, err = eng.AddPatchSet(m1.UUID, "", p1)
	require.NoError(t, err)
	_, err = eng.AddPatchSet(m1.UUID, "", p2)
	require.NoError(t, err)
	_, _, err = eng.CommitStage(m1.UUID, "")
	require.NoError(t, err)

	m2, err := eng.CreateManifest(f.release.Name, "m2", "m1")
	require.NoError(t, err)
	_, _, err = eng.OpenStage(m2.UUID, dev, []model.Tag{{Name: "rc", N: 2}})
	require.NoError(t, err)
	_, err = eng.AddPatchSet(m2.UUID, "", p3)
	require.NoError(t, err)
	_, committed, err := eng.CommitStage(m2.UUID, "")
	require.NoError(t, err)

	result, err := f.mat.Materialize(f.release, committed, f.opts())
	require.NoError(t, err)

	assert.Equal(t, "ces-v19.2.0-rc.1-rc.2", result.Branch)
	assert.Equal(t, 3, result.PatchSets)
	subjects := testutil.Git(t, f.work.WorkDir(), "log", "--format=%s", "v19.2.0.."+result.Branch)
	assert.Equal(t, []string{"mgr: dashboard", "mon: quorum", "osd: fix scrub"}, strings.Split(subjects, "\n"))
}

func TestMaterializeConflict(t *testing.T) {
	f := newFixture(t)
	alpha := f.patchSet(t, "readme: alpha", map[string]string{"README.md": "alpha\n"})
	beta := f.patchSet(t, "readme: beta", map[string]string{"README.md": "beta\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, alpha, beta))

	_, err := f.mat.Materialize(f.release, m, f.opts())
	require.Error(t, err)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, errkind.Conflict, errkind.Of(err))
	assert.Equal(t, beta, conflict.PatchSetUUID)
	assert.Equal(t, "readme: beta", conflict.PatchSetTitle)
	assert.Equal(t, 0, conflict.PatchIndex)
	assert.Equal(t, "ces-v19.2.0-rc.1", conflict.Branch)
	assert.Contains(t, conflict.Output, "Patch failed")

	// the worktree is kept for inspection, mid-application
	require.NotEmpty(t, conflict.Worktree)
	_, statErr := os.Stat(conflict.Worktree)
	require.NoError(t, statErr)
	wt, err := git.NewClient(conflict.Worktree)
	require.NoError(t, err)
	assert.True(t, wt.AmInProgress())

	// the first set landed before the failure
	assert.Equal(t, "alpha", testutil.Git(t, conflict.Worktree, "show", "HEAD:README.md"))
}

// A conflicted worktree kept for inspection must not block the next run.
func TestMaterializeAfterConflict(t *testing.T) {
	f := newFixture(t)
	alpha := f.patchSet(t, "readme: alpha", map[string]string{"README.md": "alpha\n"})
	beta := f.patchSet(t, "readme: beta", map[string]string{"README.md": "beta\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, alpha, beta))

	_, err := f.mat.Materialize(f.release, m, f.opts())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.False(t, f.work.BranchExists("ces-v19.2.0-rc.1"))

	fixed := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, alpha))
	result, err := f.mat.Materialize(f.release, fixed, f.opts())
	require.NoError(t, err)
	assert.Equal(t, "ces-v19.2.0-rc.1", result.Branch)
	assert.Equal(t, "alpha", testutil.Git(t, f.work.WorkDir(), "show", result.Branch+":README.md"))
}

func TestMaterializeConflictCleanup(t *testing.T) {
	f := newFixture(t)
	alpha := f.patchSet(t, "readme: alpha", map[string]string{"README.md": "alpha\n"})
	beta := f.patchSet(t, "readme: beta", map[string]string{"README.md": "beta\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, alpha, beta))

	opts := f.opts()
	opts.Cleanup = true
	_, err := f.mat.Materialize(f.release, m, opts)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, conflict.Worktree)
	assert.False(t, f.work.BranchExists("ces-v19.2.0-rc.1"))
}

func TestMaterializeConflictIndex(t *testing.T) {
	f := newFixture(t)
	alpha := f.patchSet(t, "readme: alpha", map[string]string{"README.md": "alpha\n"})
	// second commit collides with alpha, the first applies cleanly
	mixed := f.patchSet(t, "mixed",
		map[string]string{"extra.txt": "extra\n"},
		map[string]string{"README.md": "beta\n"},
	)
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, alpha, mixed))

	_, err := f.mat.Materialize(f.release, m, f.opts())

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, mixed, conflict.PatchSetUUID)
	assert.Equal(t, 1, conflict.PatchIndex)
}

func TestMaterializeExploratory(t *testing.T) {
	f := newFixture(t)
	ps := f.patchSet(t, "osd: fix scrub", map[string]string{"osd.txt": "scrub fixed\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, ps))

	opts := f.opts()
	opts.Exploratory = true
	result, err := f.mat.Materialize(f.release, m, opts)
	require.NoError(t, err)

	assert.True(t, result.Exploratory)
	assert.Regexp(t, regexp.MustCompile(`^ces-v19\.2\.0-rc\.1-[A-Za-z]{6}-exec-\d{8}T\d{6}$`), result.Branch)
	assert.False(t, f.work.BranchExists("ces-v19.2.0-rc.1"))
	assert.True(t, f.work.BranchExists(result.Branch))
}

func TestMaterializePush(t *testing.T) {
	f := newFixture(t)
	ps := f.patchSet(t, "osd: fix scrub", map[string]string{"osd.txt": "scrub fixed\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, ps))

	opts := f.opts()
	opts.Push = true
	result, err := f.mat.Materialize(f.release, m, opts)
	require.NoError(t, err)

	assert.True(t, result.Pushed)
	assert.Equal(t, result.Commit, testutil.Git(t, f.dst, "rev-parse", "refs/heads/"+result.Branch))
}

func TestMaterializeEmptyManifest(t *testing.T) {
	f := newFixture(t)
	m := f.manifest()

	_, err := f.mat.Materialize(f.release, m, f.opts())
	var empty *EmptyManifestError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, errkind.User, errkind.Of(err))
}

func TestMaterializeUnknownBaseRef(t *testing.T) {
	f := newFixture(t)
	ps := f.patchSet(t, "osd: fix scrub", map[string]string{"osd.txt": "scrub fixed\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, ps))
	f.release.BaseRef = "v99.0.0"

	_, err := f.mat.Materialize(f.release, m, f.opts())
	var baseErr *BaseRefError
	require.ErrorAs(t, err, &baseErr)
	assert.Equal(t, "v99.0.0", baseErr.Ref)
	assert.Equal(t, errkind.User, errkind.Of(err))
}

func TestMaterializeUnknownPatchSet(t *testing.T) {
	f := newFixture(t)
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, common.GenerateUUID()))

	_, err := f.mat.Materialize(f.release, m, f.opts())
	require.Error(t, err)
	assert.Equal(t, errkind.User, errkind.Of(err))
	assert.False(t, f.work.BranchExists("ces-v19.2.0-rc.1"))
}

func TestFinish(t *testing.T) {
	f := newFixture(t)
	ps := f.patchSet(t, "osd: fix scrub", map[string]string{"osd.txt": "scrub fixed\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, ps))

	result, err := f.mat.Finish(f.release, m, f.opts())
	require.NoError(t, err)

	assert.Equal(t, "ces-v19.2.0", result.Tag)
	assert.True(t, result.Pushed)

	workDir := f.work.WorkDir()
	assert.Equal(t, "tag", testutil.Git(t, workDir, "cat-file", "-t", "refs/tags/ces-v19.2.0"))
	assert.Equal(t, result.Commit, testutil.Git(t, workDir, "rev-parse", "ces-v19.2.0^{commit}"))

	// branch and tag both arrived at the destination
	assert.Equal(t, result.Commit, testutil.Git(t, f.dst, "rev-parse", "refs/heads/"+result.Branch))
	assert.Equal(t, result.Commit, testutil.Git(t, f.dst, "rev-parse", "ces-v19.2.0^{commit}"))
}

func TestFinishReplacesStaleLocalTag(t *testing.T) {
	f := newFixture(t)
	ps := f.patchSet(t, "osd: fix scrub", map[string]string{"osd.txt": "scrub fixed\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, ps))

	// a previous finish attempt tagged but never pushed
	testutil.Git(t, f.work.WorkDir(), "tag", "-a", "ces-v19.2.0", "-m", "stale", "HEAD")

	result, err := f.mat.Finish(f.release, m, f.opts())
	require.NoError(t, err)
	assert.Equal(t, result.Commit, testutil.Git(t, f.work.WorkDir(), "rev-parse", "ces-v19.2.0^{commit}"))
	assert.Equal(t, result.Commit, testutil.Git(t, f.dst, "rev-parse", "ces-v19.2.0^{commit}"))
}

func TestFinishConflictLeavesNoTag(t *testing.T) {
	f := newFixture(t)
	alpha := f.patchSet(t, "readme: alpha", map[string]string{"README.md": "alpha\n"})
	beta := f.patchSet(t, "readme: beta", map[string]string{"README.md": "beta\n"})
	m := f.manifest(committedStage(model.Tag{Name: "rc", N: 1}, alpha, beta))

	opts := f.opts()
	opts.Cleanup = true
	_, err := f.mat.Finish(f.release, m, opts)

	require.Error(t, err)
	assert.Equal(t, errkind.Conflict, errkind.Of(err))
	assert.False(t, f.work.TagExists("ces-v19.2.0"))
	var missing *ConflictError
	require.ErrorAs(t, err, &missing)
}
