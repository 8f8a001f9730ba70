package mirror

import (
	"path"
	"strconv"
	"strings"
)

// Content types of mirrored objects
const (
	ctRelease  = "application/vnd.clyso.crt.release+json"
	ctManifest = "application/vnd.clyso.crt.manifest+json"
	ctPatchSet = "application/vnd.clyso.crt.patchset+json"
	ctUUID     = "application/vnd.clyso.crt.uuid+text"
	ctState    = "application/vnd.clyso.crt.state+json"
	ctMbox     = "application/mbox"
)

// Bookkeeping objects. stateKey is mirrored, the ledger never leaves the
// local store.
const (
	stateKey   = "state.json"
	ledgerName = "mirror.json"
)

// Object keys reproduce the store's on-disk layout relative to its root, so
// a bucket prefix holds a browsable copy of the database.

func releaseKey(name string) string {
	return path.Join("releases", name+".json")
}

func manifestKey(uuid string) string {
	return path.Join("manifests", uuid+".json")
}

func manifestNameKey(name string) string {
	return path.Join("manifests", "by_name", name+".json")
}

func patchKey(uuid string) string {
	return path.Join("patches", uuid+".patch")
}

func patchMetaKey(uuid string) string {
	return path.Join("patches", "meta", uuid+".json")
}

func identityKey(owner, repo string, number int, headSHA string) string {
	return path.Join("patches", "meta", owner, repo, strconv.Itoa(number), headSHA)
}

func latestKey(owner, repo string, number int) string {
	return path.Join("patches", "meta", owner, repo, strconv.Itoa(number), "latest")
}

// isLinkKey reports whether rel is stored as a symlink locally. Link objects
// carry the link target as their body and are recreated as symlinks on sync.
func isLinkKey(rel string) bool {
	if strings.HasPrefix(rel, "manifests/by_name/") {
		return true
	}
	return strings.HasPrefix(rel, "patches/meta/") && path.Base(rel) == "latest"
}

// contentTypeFor classifies a relative key
func contentTypeFor(rel string) string {
	switch {
	case rel == stateKey:
		return ctState
	case isLinkKey(rel):
		return ctUUID
	case strings.HasPrefix(rel, "releases/"):
		return ctRelease
	case strings.HasPrefix(rel, "manifests/"):
		return ctManifest
	case strings.HasSuffix(rel, ".patch"):
		return ctMbox
	case strings.HasPrefix(rel, "patches/meta/") && strings.HasSuffix(rel, ".json"):
		return ctPatchSet
	default:
		return ctUUID
	}
}
