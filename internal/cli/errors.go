package cli

import (
	"fmt"

	"github.com/clyso/crt/internal/config"
	"github.com/clyso/crt/internal/errkind"
)

// WorkRepoUnsetError means a command needed the materialization repository
// but none is configured
type WorkRepoUnsetError struct{}

func (e *WorkRepoUnsetError) Error() string {
	return fmt.Sprintf("no work repository configured, set work_repo in %s or %s", config.DefaultPath(), config.EnvWorkRepo)
}

func (e *WorkRepoUnsetError) Kind() errkind.Kind {
	return errkind.User
}

// MirrorUnsetError means a db command ran without a configured S3 mirror
type MirrorUnsetError struct{}

func (e *MirrorUnsetError) Error() string {
	return fmt.Sprintf("no mirror configured, set s3.bucket in %s or %s", config.DefaultPath(), config.EnvS3Bucket)
}

func (e *MirrorUnsetError) Kind() errkind.Kind {
	return errkind.User
}
