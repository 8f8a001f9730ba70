package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clyso/crt/internal/cli"
	"github.com/clyso/crt/internal/config"
	"github.com/clyso/crt/internal/engine"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/store"
)

const sampleBlob = "From 1111 Mon Sep 17 00:00:00 2001\nFrom: Jane Dev <jane@example.com>\nDate: Tue, 11 Mar 2025 10:11:12 +0000\nSubject: [PATCH] osd: fix scrub\n\nbody\n---\n diff\n"

var testAuthor = model.Author{Name: "Jane Dev", Email: "jane@example.com"}

func newTestApp(t *testing.T) *cli.App {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(dir)
	require.NoError(t, err)
	return &cli.App{
		Config: &config.Config{StorePath: dir},
		Store:  st,
		Engine: engine.New(st),
	}
}

// seedManifest creates a release with one manifest named m1
func seedManifest(t *testing.T, app *cli.App) *model.Manifest {
	t.Helper()
	_, err := app.Engine.CreateRelease(engine.ReleaseOptions{
		Name:    "ces-v19.2.1",
		BaseRef: "v19.2.1",
		Base:    model.Repo{Owner: "ceph", Name: "ceph"},
		Dst:     model.Repo{Owner: "clyso", Name: "ceph"},
	})
	require.NoError(t, err)
	m, err := app.Engine.CreateManifest("ces-v19.2.1", "m1", "")
	require.NoError(t, err)
	return m
}

func seedPatchSet(t *testing.T, app *cli.App, title string) string {
	t.Helper()
	uuid, err := app.Store.PutPatchSet(&model.PatchSet{
		Kind:  model.PatchSetCustom,
		Title: title,
	}, []byte(sampleBlob))
	require.NoError(t, err)
	return uuid
}

func TestCommit(t *testing.T) {
	testCases := []struct {
		desc        string
		setup       func(t *testing.T, app *cli.App)
		verify      func(t *testing.T, app *cli.App)
		expectError string
	}{
		{
			desc:        "unknown manifest returns error",
			setup:       func(t *testing.T, app *cli.App) {},
			expectError: "manifest m1 not found",
		},
		{
			desc: "no open stage returns error",
			setup: func(t *testing.T, app *cli.App) {
				seedManifest(t, app)
			},
			expectError: "no open stage",
		},
		{
			desc: "empty stage cannot be committed",
			setup: func(t *testing.T, app *cli.App) {
				seedManifest(t, app)
				_, _, err := app.Engine.OpenStage("m1", testAuthor, nil)
				require.NoError(t, err)
			},
			expectError: "no patch sets",
		},
		{
			desc: "commits the open stage",
			setup: func(t *testing.T, app *cli.App) {
				seedManifest(t, app)
				_, _, err := app.Engine.OpenStage("m1", testAuthor, nil)
				require.NoError(t, err)
				uuid := seedPatchSet(t, app, "osd: fix scrub")
				_, err = app.Engine.AddPatchSet("m1", "", uuid)
				require.NoError(t, err)
			},
			verify: func(t *testing.T, app *cli.App) {
				m, err := app.Engine.ResolveManifest("m1")
				require.NoError(t, err)
				require.Len(t, m.Stages, 1)
				assert.True(t, m.Stages[0].Committed)
				assert.False(t, m.Stages[0].CommittedAt.IsZero())
				assert.Nil(t, m.ActiveStage())
			},
		},
		{
			desc: "second commit of the same stage returns error",
			setup: func(t *testing.T, app *cli.App) {
				seedManifest(t, app)
				_, _, err := app.Engine.OpenStage("m1", testAuthor, nil)
				require.NoError(t, err)
				uuid := seedPatchSet(t, app, "osd: fix scrub")
				_, err = app.Engine.AddPatchSet("m1", "", uuid)
				require.NoError(t, err)
				_, _, err = app.Engine.CommitStage("m1", "")
				require.NoError(t, err)
			},
			expectError: "no open stage",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			app := newTestApp(t)
			tc.setup(t, app)

			cmd := CommitCommand{
				Manifest: "m1",
				App:      app,
			}
			err := cmd.Run()
			if tc.expectError != "" {
				assert.ErrorContains(t, err, tc.expectError)
			} else {
				assert.NoError(t, err)
			}

			if tc.verify != nil {
				tc.verify(t, app)
			}
		})
	}
}
