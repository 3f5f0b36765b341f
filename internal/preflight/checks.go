package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

func failed(name, path, format string, args ...any) Result {
	return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, fmt.Sprintf(format, args...))}
}

func passed(name, path, note string) Result {
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, note)}
}

// CheckDirectoryAccess verifies that path is an existing directory the
// current user can list and write.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return failed(name, path, "does not exist")
	case err != nil:
		return failed(name, path, "stat: %v", err)
	case !info.IsDir():
		return failed(name, path, "is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return failed(name, path, "insufficient permissions: %v", err)
	}
	return passed(name, path, "read/write ok")
}

// CheckContentDB verifies the content database file. A missing file passes
// since the first import creates it.
func CheckContentDB(path string) Result {
	const name = "Content database"

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return passed(name, path, "not created yet")
	case err != nil:
		return failed(name, path, "stat: %v", err)
	case info.IsDir():
		return failed(name, path, "is a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return failed(name, path, "insufficient permissions: %v", err)
	}
	return passed(name, path, humanize.IBytes(uint64(info.Size())))
}
