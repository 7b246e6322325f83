// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fusefs

import (
	"context"
	"errors"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/assetfs/lib/assetfs"
)

// toErrno maps a tree error to the errno returned to the kernel.
// Loader failures, integrity failures and anything unrecognized are
// EIO.
func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, assetfs.ErrPermission):
		return unix.EPERM
	case errors.Is(err, assetfs.ErrNotFound):
		return unix.ENOENT
	case errors.Is(err, assetfs.ErrExists):
		return unix.EEXIST
	case errors.Is(err, assetfs.ErrNotDir):
		return unix.ENOTDIR
	case errors.Is(err, assetfs.ErrIsDir):
		return unix.EISDIR
	case errors.Is(err, assetfs.ErrInvalid):
		return unix.EINVAL
	case errors.Is(err, assetfs.ErrClosed):
		return unix.EBADF
	case errors.Is(err, assetfs.ErrTooLarge):
		return unix.EFBIG
	case errors.Is(err, assetfs.ErrNotLoaded), errors.Is(err, assetfs.ErrNoLoader):
		// Content the mount cannot produce. Setattr loads before a
		// truncate, so reaching here means the fetch path is broken.
		return unix.EIO
	case errors.Is(err, context.Canceled):
		return unix.EINTR
	}
	return unix.EIO
}
