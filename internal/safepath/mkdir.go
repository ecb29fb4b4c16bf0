package safepath

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// dirPerm is the creation mode for directories; the umask still applies.
const dirPerm = 0o755

// MkdirOutcome reports what CreateOrConfirm found.
type MkdirOutcome uint8

const (
	// Created means the directory did not exist and was created.
	Created MkdirOutcome = iota + 1
	// AlreadyExisted means a directory was already present, possibly created
	// concurrently by another entry.
	AlreadyExisted
)

func (o MkdirOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExisted:
		return "already existed"
	default:
		return "unknown"
	}
}

// CreateOrConfirm creates a single directory level.
//
// An existing directory is not an error: extraction creates ancestors from
// many goroutines at once, so losing the race to another entry is expected.
// An existing non-directory fails with ENOTDIR.
func CreateOrConfirm(dir string) (MkdirOutcome, error) {
	err := os.Mkdir(dir, dirPerm)
	if err == nil {
		return Created, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return 0, err
	}
	info, statErr := os.Stat(dir)
	if statErr != nil {
		return 0, statErr
	}
	if !info.IsDir() {
		return 0, &fs.PathError{Op: "mkdir", Path: dir, Err: syscall.ENOTDIR}
	}
	return AlreadyExisted, nil
}
