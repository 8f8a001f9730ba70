package common

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID generates a canonical UUID string for store objects
func GenerateUUID() string {
	return uuid.NewString()
}

const gitUIDLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateGitUID generates the 6-letter disambiguator appended to
// exploratory branch names
func GenerateGitUID() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = gitUIDLetters[rand.Intn(len(gitUIDLetters))]
	}
	return string(b)
}

// ExecTimestamp formats t as the compact UTC timestamp used in exploratory
// branch names, e.g. 20250312T154233
func ExecTimestamp(t time.Time) string {
	return t.UTC().Format("20060102T150405")
}
