package mirror

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clyso/crt/internal/common"
	"github.com/clyso/crt/internal/errkind"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/store"
)

const pushBlob = "From 1111 Mon Sep 17 00:00:00 2001\nFrom: Jane Dev <jane@example.com>\nDate: Tue, 11 Mar 2025 10:11:12 +0000\nSubject: [PATCH] osd: fix scrub\n\nbody\n---\n diff\n"

// seeded holds the store objects a push is expected to publish
type seeded struct {
	store        *store.Store
	patchSetUUID string
	manifestUUID string
}

func seedStore(t *testing.T) *seeded {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	baseRepo, err := model.ParseRepo("ceph/ceph")
	require.NoError(t, err)
	dstRepo, err := model.ParseRepo("clyso/ceph")
	require.NoError(t, err)
	require.NoError(t, st.CreateRelease(&model.Release{
		Name:     "ces-v19.2.0",
		BaseRef:  "v19.2.0",
		BaseRepo: baseRepo,
		DstRepo:  dstRepo,
	}))

	psUUID, err := st.PutPatchSet(&model.PatchSet{
		Kind:     model.PatchSetGH,
		Title:    "osd: fix scrub",
		Owner:    "ceph",
		Repo:     "ceph",
		PRNumber: 61234,
		HeadSHA:  "abc123",
	}, []byte(pushBlob))
	require.NoError(t, err)

	manifest := &model.Manifest{
		UUID:    common.GenerateUUID(),
		Name:    "m1",
		Release: "ces-v19.2.0",
		Stages: []model.Stage{{
			UUID:      common.GenerateUUID(),
			Author:    model.Author{Name: "Test Dev", Email: "test@example.com"},
			Tags:      []model.Tag{{Name: "rc", N: 1}},
			PatchSets: []string{psUUID},
			Committed: true,
		}},
	}
	require.NoError(t, st.CreateManifest(manifest))

	return &seeded{store: st, patchSetUUID: psUUID, manifestUUID: manifest.UUID}
}

// capturePuts records every PutObjectInput by relative key and answers with
// a fixed etag
func capturePuts(s3mock *MockS3, etag string) map[string]*s3.PutObjectInput {
	puts := map[string]*s3.PutObjectInput{}
	s3mock.On("PutObject", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			input := args.Get(1).(*s3.PutObjectInput)
			puts[aws.ToString(input.Key)] = input
		}).
		Return(&s3.PutObjectOutput{ETag: aws.String(etag)}, nil)
	return puts
}

func putBody(t *testing.T, input *s3.PutObjectInput) string {
	t.Helper()
	data, err := io.ReadAll(input.Body)
	require.NoError(t, err)
	return string(data)
}

func TestPushFirstTime(t *testing.T) {
	seed := seedStore(t)
	s3mock := new(MockS3)
	m := New(s3mock, seed.store, "patch-db", "crt")

	s3mock.On("HeadObject", mock.Anything, mock.Anything).
		Return(nil, errors.New("operation error S3: HeadObject, StatusCode: 404, NotFound"))
	puts := capturePuts(s3mock, `"etag-1"`)

	result, err := m.Push(context.Background(), seed.manifestUUID)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Uploaded)
	assert.Equal(t, 0, result.Skipped)

	// immutable objects are created, never overwritten
	patch := puts["crt/patches/"+seed.patchSetUUID+".patch"]
	require.NotNil(t, patch)
	assert.Equal(t, "application/mbox", aws.ToString(patch.ContentType))
	assert.Equal(t, "*", aws.ToString(patch.IfNoneMatch))
	assert.Equal(t, pushBlob, putBody(t, patch))

	meta := puts["crt/patches/meta/"+seed.patchSetUUID+".json"]
	require.NotNil(t, meta)
	assert.Equal(t, "application/vnd.clyso.crt.patchset+json", aws.ToString(meta.ContentType))

	identity := puts["crt/patches/meta/ceph/ceph/61234/abc123"]
	require.NotNil(t, identity)
	assert.Equal(t, seed.patchSetUUID, strings.TrimSpace(putBody(t, identity)))

	latest := puts["crt/patches/meta/ceph/ceph/61234/latest"]
	require.NotNil(t, latest)
	assert.Equal(t, "abc123", strings.TrimSpace(putBody(t, latest)))
	assert.Nil(t, latest.IfMatch)
	assert.Nil(t, latest.IfNoneMatch)

	manifest := puts["crt/manifests/"+seed.manifestUUID+".json"]
	require.NotNil(t, manifest)
	assert.Equal(t, "application/vnd.clyso.crt.manifest+json", aws.ToString(manifest.ContentType))
	assert.Equal(t, "*", aws.ToString(manifest.IfNoneMatch))

	byName := puts["crt/manifests/by_name/m1.json"]
	require.NotNil(t, byName)
	assert.Equal(t, "../"+seed.manifestUUID+".json", strings.TrimSpace(putBody(t, byName)))

	release := puts["crt/releases/ces-v19.2.0.json"]
	require.NotNil(t, release)
	assert.Equal(t, "application/vnd.clyso.crt.release+json", aws.ToString(release.ContentType))

	state := puts["crt/state.json"]
	require.NotNil(t, state)
	assert.Equal(t, "application/vnd.clyso.crt.state+json", aws.ToString(state.ContentType))
	assert.Contains(t, putBody(t, state), seed.manifestUUID)

	// the ledger recorded the returned etags
	data, err := os.ReadFile(filepath.Join(seed.store.Root(), "mirror.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "manifests/"+seed.manifestUUID+".json")
	assert.Contains(t, string(data), "etag-1")
}

func TestPushSecondTimeSkipsImmutable(t *testing.T) {
	seed := seedStore(t)

	first := new(MockS3)
	first.On("HeadObject", mock.Anything, mock.Anything).
		Return(nil, errors.New("NotFound"))
	capturePuts(first, `"etag-1"`)
	_, err := New(first, seed.store, "patch-db", "crt").Push(context.Background(), seed.manifestUUID)
	require.NoError(t, err)

	second := new(MockS3)
	second.On("HeadObject", mock.Anything, mock.Anything).
		Return(&s3.HeadObjectOutput{ETag: aws.String(`"etag-1"`)}, nil)
	puts := capturePuts(second, `"etag-2"`)

	result, err := New(second, seed.store, "patch-db", "crt").Push(context.Background(), seed.manifestUUID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, 5, result.Uploaded)

	// mutable objects now swap against the recorded etag
	manifest := puts["crt/manifests/"+seed.manifestUUID+".json"]
	require.NotNil(t, manifest)
	assert.Equal(t, `"etag-1"`, aws.ToString(manifest.IfMatch))
	assert.Nil(t, manifest.IfNoneMatch)

	_, hasPatch := puts["crt/patches/"+seed.patchSetUUID+".patch"]
	assert.False(t, hasPatch)
}

func TestPushRemoteConflict(t *testing.T) {
	seed := seedStore(t)
	s3mock := new(MockS3)
	m := New(s3mock, seed.store, "patch-db", "crt")

	s3mock.On("HeadObject", mock.Anything, mock.Anything).
		Return(nil, errors.New("NotFound"))
	s3mock.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return strings.HasPrefix(aws.ToString(in.Key), "crt/manifests/") &&
			!strings.Contains(aws.ToString(in.Key), "by_name")
	})).Return(nil, errors.New("operation error S3: PutObject, StatusCode: 412, PreconditionFailed"))
	s3mock.On("PutObject", mock.Anything, mock.Anything).
		Return(&s3.PutObjectOutput{ETag: aws.String(`"etag-1"`)}, nil)

	_, err := m.Push(context.Background(), seed.manifestUUID)
	require.Error(t, err)

	var conflict *RemoteConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "manifests/"+seed.manifestUUID+".json", conflict.Key)
	assert.Equal(t, errkind.Integrity, errkind.Of(err))
}

func TestPushUnknownManifest(t *testing.T) {
	seed := seedStore(t)
	m := New(new(MockS3), seed.store, "patch-db", "crt")

	_, err := m.Push(context.Background(), common.GenerateUUID())
	require.Error(t, err)
	assert.Equal(t, errkind.User, errkind.Of(err))
}

func remoteObject(key, etag string) types.Object {
	return types.Object{Key: aws.String(key), ETag: aws.String(etag)}
}

func getOutput(body string) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}
}

func TestSync(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	s3mock := new(MockS3)
	m := New(s3mock, st, "patch-db", "crt")

	manifestUUID := common.GenerateUUID()
	psUUID := common.GenerateUUID()
	releaseJSON := `{"name":"ces-v19.2.0","base_ref":"v19.2.0","base_repo":{"owner":"ceph","name":"ceph"},"dst_repo":{"owner":"clyso","name":"ceph"},"created_at":"2025-03-11T10:00:00Z"}`
	manifestJSON := `{"uuid":"` + manifestUUID + `","name":"m1","release":"ces-v19.2.0","created_at":"2025-03-11T10:00:00Z","stages":[]}`

	s3mock.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			remoteObject("crt/releases/ces-v19.2.0.json", `"e1"`),
			remoteObject("crt/manifests/"+manifestUUID+".json", `"e2"`),
			remoteObject("crt/manifests/by_name/m1.json", `"e3"`),
			remoteObject("crt/patches/"+psUUID+".patch", `"e4"`),
			remoteObject("crt/patches/meta/"+psUUID+".json", `"e5"`),
			remoteObject("crt/patches/meta/ceph/ceph/61234/abc123", `"e6"`),
			remoteObject("crt/patches/meta/ceph/ceph/61234/latest", `"e7"`),
			remoteObject("crt/state.json", `"e8"`),
		},
		IsTruncated: aws.Bool(false),
	}, nil)

	bodies := map[string]string{
		"crt/releases/ces-v19.2.0.json":           releaseJSON,
		"crt/manifests/" + manifestUUID + ".json": manifestJSON,
		"crt/manifests/by_name/m1.json":           "../" + manifestUUID + ".json\n",
		"crt/patches/" + psUUID + ".patch":        pushBlob,
		"crt/patches/meta/" + psUUID + ".json":    `{"uuid":"` + psUUID + `","kind":"gh","title":"osd: fix scrub","created_at":"2025-03-11T10:00:00Z","patches":[]}`,
		"crt/patches/meta/ceph/ceph/61234/abc123": psUUID + "\n",
		"crt/patches/meta/ceph/ceph/61234/latest": "abc123\n",
		"crt/state.json":                          `{"updated_at":"2025-03-11T10:00:00Z","last_manifest":"` + manifestUUID + `"}`,
	}
	for key, body := range bodies {
		key := key
		s3mock.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return aws.ToString(in.Key) == key
		})).Return(getOutput(body), nil).Once()
	}

	result, err := m.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, result.Downloaded)
	assert.Equal(t, 0, result.Unchanged)

	// the typed store reads work on the synced copy
	manifest, err := st.GetManifestByName("m1")
	require.NoError(t, err)
	assert.Equal(t, manifestUUID, manifest.UUID)

	release, err := st.GetRelease("ces-v19.2.0")
	require.NoError(t, err)
	assert.Equal(t, "v19.2.0", release.BaseRef)

	blob, err := st.GetPatchBlob(psUUID)
	require.NoError(t, err)
	assert.Equal(t, pushBlob, string(blob))

	uuid, err := st.LookupPR("ceph", "ceph", 61234, "")
	require.NoError(t, err)
	assert.Equal(t, psUUID, uuid)

	latest, err := os.Readlink(filepath.Join(st.Root(), "patches", "meta", "ceph", "ceph", "61234", "latest"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", latest)

	// second sync sees identical etags and downloads nothing
	again, err := m.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Downloaded)
	assert.Equal(t, 8, again.Unchanged)
	s3mock.AssertExpectations(t)
}

func TestSyncPaginates(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	s3mock := new(MockS3)
	m := New(s3mock, st, "patch-db", "crt")

	s3mock.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{remoteObject("crt/releases/a.json", `"e1"`)},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page2"),
	}, nil)
	s3mock.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "page2"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{remoteObject("crt/releases/b.json", `"e2"`)},
		IsTruncated: aws.Bool(false),
	}, nil)
	s3mock.On("GetObject", mock.Anything, mock.Anything).
		Return(getOutput(`{"name":"x"}`), nil)

	result, err := m.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Downloaded)
}

func TestSyncTransient(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	s3mock := new(MockS3)
	m := New(s3mock, st, "patch-db", "crt")

	s3mock.On("ListObjectsV2", mock.Anything, mock.Anything).
		Return(nil, errors.New("dial tcp: connection refused"))

	_, err = m.Sync(context.Background())
	require.Error(t, err)
	var transfer *TransferError
	require.ErrorAs(t, err, &transfer)
	assert.Equal(t, errkind.Transient, errkind.Of(err))
}
