// Package mirror pushes the patch store to an S3 bucket and syncs remote
// updates back. Object keys reproduce the store layout under a configurable
// prefix; symlinks travel as small text objects carrying their target.
// Conditional puts against the etags recorded at last sync keep concurrent
// pushers from silently overwriting each other.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/store"
)

// S3API is the subset of the SDK client the mirror uses
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Mirror replicates one store to one bucket prefix
type Mirror struct {
	s3     S3API
	store  *store.Store
	bucket string
	prefix string
}

// New creates a mirror for the store over the given bucket and key prefix
func New(client S3API, st *store.Store, bucket, prefix string) *Mirror {
	return &Mirror{
		s3:     client,
		store:  st,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// PushResult counts the objects touched by a push
type PushResult struct {
	Uploaded int
	Skipped  int
}

// SyncResult counts the objects touched by a sync
type SyncResult struct {
	Downloaded int
	Unchanged  int
}

// remoteState is the content of state.json, the marker consumers poll to
// notice new pushes
type remoteState struct {
	UpdatedAt    time.Time `json:"updated_at"`
	LastManifest string    `json:"last_manifest"`
}

// Push publishes a manifest and everything it references. Patch sets are
// immutable and uploaded only when absent; the manifest and release objects
// are guarded by the etag recorded at last sync, so a remote update this
// machine has not seen fails the push instead of being overwritten.
func (m *Mirror) Push(ctx context.Context, manifestUUID string) (*PushResult, error) {
	manifest, err := m.store.GetManifest(manifestUUID)
	if err != nil {
		return nil, err
	}
	release, err := m.store.GetRelease(manifest.Release)
	if err != nil {
		return nil, err
	}
	led, err := loadLedger(m.store.Root())
	if err != nil {
		return nil, err
	}

	result := &PushResult{}
	for _, uuid := range manifest.EffectiveSequence() {
		ps, err := m.store.GetPatchSet(uuid)
		if err != nil {
			return nil, err
		}
		if err := m.ensureImmutable(ctx, led, patchKey(uuid), ctMbox, result); err != nil {
			return nil, err
		}
		if err := m.ensureImmutable(ctx, led, patchMetaKey(uuid), ctPatchSet, result); err != nil {
			return nil, err
		}
		if ps.Kind == model.PatchSetGH {
			key := ps.Key()
			if err := m.ensureImmutable(ctx, led, identityKey(key.Owner, key.Repo, key.Number, key.HeadSHA), ctUUID, result); err != nil {
				return nil, err
			}
			if err := m.putPlain(ctx, led, latestKey(key.Owner, key.Repo, key.Number), ctUUID, result); err != nil {
				return nil, err
			}
		}
	}

	if err := m.putGuarded(ctx, led, manifestKey(manifest.UUID), ctManifest, result); err != nil {
		return nil, err
	}
	if manifest.Name != "" {
		if err := m.putPlain(ctx, led, manifestNameKey(manifest.Name), ctUUID, result); err != nil {
			return nil, err
		}
	}
	if err := m.putGuarded(ctx, led, releaseKey(release.Name), ctRelease, result); err != nil {
		return nil, err
	}

	state, err := json.MarshalIndent(remoteState{
		UpdatedAt:    time.Now().UTC(),
		LastManifest: manifest.UUID,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode mirror state: %w", err)
	}
	etag, err := m.put(ctx, stateKey, ctState, append(state, '\n'), "", "")
	if err != nil {
		return nil, err
	}
	led.Objects[stateKey] = ledgerEntry{ETag: etag, SyncedAt: time.Now().UTC()}
	result.Uploaded++

	if err := led.save(m.store.Root()); err != nil {
		return nil, err
	}
	return result, nil
}

// Sync lists the remote objects and downloads everything whose etag differs
// from the ledger. Local objects the remote does not know about are left
// alone; they are unpushed local work.
func (m *Mirror) Sync(ctx context.Context) (*SyncResult, error) {
	led, err := loadLedger(m.store.Root())
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	seen := map[string]bool{}
	var token *string
	for {
		out, err := m.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(m.bucket),
			Prefix:            aws.String(m.listPrefix()),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, classify("list", "", err)
		}
		for _, obj := range out.Contents {
			rel := m.relKey(aws.ToString(obj.Key))
			if rel == "" || rel == ledgerName {
				continue
			}
			etag := aws.ToString(obj.ETag)
			seen[rel] = true
			if entry, ok := led.Objects[rel]; ok && entry.ETag == etag {
				result.Unchanged++
				continue
			}
			if err := m.download(ctx, led, rel, etag); err != nil {
				return nil, err
			}
			result.Downloaded++
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	// entries for objects deleted remotely would block future recreation
	for rel := range led.Objects {
		if !seen[rel] {
			delete(led.Objects, rel)
		}
	}
	led.SyncedAt = time.Now().UTC()
	if err := led.save(m.store.Root()); err != nil {
		return nil, err
	}
	return result, nil
}

// ensureImmutable uploads an object that never changes once written,
// skipping it when the remote already has it. A concurrent creation loses
// the precondition race but carries identical content, so it counts as
// skipped.
func (m *Mirror) ensureImmutable(ctx context.Context, led *ledger, rel, contentType string, result *PushResult) error {
	_, err := m.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.remoteKey(rel)),
	})
	if err == nil {
		result.Skipped++
		return nil
	}
	if !isNotFound(err) {
		return classify("head", rel, err)
	}

	body, err := m.localBody(rel)
	if err != nil {
		return err
	}
	etag, err := m.put(ctx, rel, contentType, body, "", "*")
	if err != nil {
		var conflict *RemoteConflictError
		if errors.As(err, &conflict) {
			result.Skipped++
			return nil
		}
		return err
	}
	led.Objects[rel] = ledgerEntry{ETag: etag, SyncedAt: time.Now().UTC()}
	result.Uploaded++
	return nil
}

// putGuarded uploads a mutable object with compare-and-swap semantics:
// If-Match against the last synced etag, or If-None-Match * for objects this
// store has never seen remotely.
func (m *Mirror) putGuarded(ctx context.Context, led *ledger, rel, contentType string, result *PushResult) error {
	body, err := m.localBody(rel)
	if err != nil {
		return err
	}
	var etag string
	if entry, ok := led.Objects[rel]; ok {
		etag, err = m.put(ctx, rel, contentType, body, entry.ETag, "")
	} else {
		etag, err = m.put(ctx, rel, contentType, body, "", "*")
	}
	if err != nil {
		return err
	}
	led.Objects[rel] = ledgerEntry{ETag: etag, SyncedAt: time.Now().UTC()}
	result.Uploaded++
	return nil
}

// putPlain uploads an object whose any-value-wins semantics need no guard,
// like the latest pointers
func (m *Mirror) putPlain(ctx context.Context, led *ledger, rel, contentType string, result *PushResult) error {
	body, err := m.localBody(rel)
	if err != nil {
		return err
	}
	etag, err := m.put(ctx, rel, contentType, body, "", "")
	if err != nil {
		return err
	}
	led.Objects[rel] = ledgerEntry{ETag: etag, SyncedAt: time.Now().UTC()}
	result.Uploaded++
	return nil
}

func (m *Mirror) put(ctx context.Context, rel, contentType string, body []byte, ifMatch, ifNoneMatch string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.remoteKey(rel)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if ifMatch != "" {
		input.IfMatch = aws.String(ifMatch)
	}
	if ifNoneMatch != "" {
		input.IfNoneMatch = aws.String(ifNoneMatch)
	}
	out, err := m.s3.PutObject(ctx, input)
	if err != nil {
		return "", classify("put", rel, err)
	}
	return aws.ToString(out.ETag), nil
}

func (m *Mirror) download(ctx context.Context, led *ledger, rel, etag string) error {
	out, err := m.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.remoteKey(rel)),
	})
	if err != nil {
		return classify("get", rel, err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return &TransferError{Op: "get", Key: rel, Err: err}
	}

	full := filepath.Join(m.store.Root(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(full), err)
	}
	if isLinkKey(rel) {
		if err := writeLink(full, strings.TrimSpace(string(body))); err != nil {
			return err
		}
	} else {
		if err := writeFile(full, body); err != nil {
			return err
		}
	}
	led.Objects[rel] = ledgerEntry{ETag: etag, SyncedAt: time.Now().UTC()}
	return nil
}

// localBody reads the object bytes for a relative key. Symlinks contribute
// their target, trailing newline, so link objects stay diffable text.
func (m *Mirror) localBody(rel string) ([]byte, error) {
	full := filepath.Join(m.store.Root(), filepath.FromSlash(rel))
	info, err := os.Lstat(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read store object %s: %w", rel, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(full)
		if err != nil {
			return nil, fmt.Errorf("failed to read store object %s: %w", rel, err)
		}
		return []byte(target + "\n"), nil
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read store object %s: %w", rel, err)
	}
	return data, nil
}

func (m *Mirror) remoteKey(rel string) string {
	if m.prefix == "" {
		return rel
	}
	return m.prefix + "/" + rel
}

func (m *Mirror) listPrefix() string {
	if m.prefix == "" {
		return ""
	}
	return m.prefix + "/"
}

// relKey strips the bucket prefix, returning "" for keys outside it
func (m *Mirror) relKey(key string) string {
	if m.prefix == "" {
		return key
	}
	rel := strings.TrimPrefix(key, m.prefix+"/")
	if rel == key {
		return ""
	}
	return rel
}

func writeFile(full string, body []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(full), ".sync-*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", full, err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", full, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", full, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", full, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", full, err)
	}
	return nil
}

// writeLink replaces full with a symlink to target via a rename, so readers
// never observe a missing link
func writeLink(full, target string) error {
	tmp := full + ".sync-tmp"
	os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("failed to link %s: %w", full, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to link %s: %w", full, err)
	}
	return nil
}
