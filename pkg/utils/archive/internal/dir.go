package internal

import (
	"errors"
	"os"
	"path/filepath"
)

// like filepath.Walk, but do not follows symlinks.
//
// LWalk visits directories/files in lexical order and depth-first arrival order (preorder).
//
// The visit function is called for each file or directory visited by LWalk.
// It can be nil when you don't need to visit files in preorder.
// The info argument to visit comes from os.Lstat of the item,
// or will be nil if there was an error walking to path.
// If visit returns filepath.SkipDir, LWalk skips the directory's contents.
//
// The leave function is called after all the directory's contents have been visited
// (postorder). It can be nil when you don't need to visit files in postorder.
func LWalk(
	dir string,
	visit func(path string, info os.FileInfo, err error) error,
	leave func(path string, info os.FileInfo, err error) error,
) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	info, err := os.Lstat(dir)
	if err != nil {
		info = nil
	}

	if visit != nil {
		if err := visit(dir, info, err); errors.Is(err, filepath.SkipDir) {
			return nil
		} else if err != nil {
			return err
		}
	}

	var walkerr error
	if info.IsDir() {
		walkerr = lwalk(dir, visit, leave)
	}

	if leave == nil {
		return walkerr
	}

	if err := leave(dir, info, walkerr); errors.Is(err, filepath.SkipDir) {
		return nil
	} else if err != nil {
		return err
	}
	return nil
}

func lwalk(
	dir string,
	visit func(path string, info os.FileInfo, err error) error,
	leave func(path string, info os.FileInfo, err error) error,
) error {
	d, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, de := range d {
		path := filepath.Join(dir, de.Name())
		info, err := os.Lstat(path)
		if err != nil {
			info = nil
		}
		if visit != nil {
			if err := visit(path, info, err); errors.Is(err, filepath.SkipDir) {
				continue
			} else if err != nil {
				return err
			}
		}

		var walkerr error
		if info.IsDir() {
			walkerr = lwalk(path, visit, leave)
		}

		if leave == nil {
			if walkerr != nil {
				return walkerr
			}
			continue
		}

		if err := leave(path, info, walkerr); errors.Is(err, filepath.SkipDir) {
			// pass: this item is already visited.
		} else if err != nil {
			return err
		}
	}

	return nil
}
