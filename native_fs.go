// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LoadRendererFS extracts the renderer library named libFile, together with
// every other file in its directory (sibling libraries the renderer links
// against), from fsys into a fresh temporary directory and loads it from there.
//
// libFile is relative to the FS root (e.g., "renderer/libcappy3ds_render.so").
// The returned directory should be removed by the caller once the renderer is
// no longer needed.
//
// Example with embed.FS:
//
//	//go:embed renderer
//	var rendererFiles embed.FS
//	r, dir, err := surfacebridge.LoadRendererFS(rendererFiles, "renderer/cappy3ds_render.dll")
func LoadRendererFS(fsys fs.FS, libFile string) (*NativeRenderer, string, error) {
	dir, err := extractRendererFS(fsys, libFile)
	if err != nil {
		return nil, "", err
	}
	r, err := loadRendererPath(filepath.Join(dir, path.Base(normalizeFSPath(libFile))))
	if err != nil {
		os.RemoveAll(dir)
		return nil, "", err
	}
	return r, dir, nil
}

func normalizeFSPath(p string) string {
	norm := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimLeft(norm, "/")
}

// extractRendererFS copies the directory holding libFile into a temp dir and
// returns its path.
func extractRendererFS(fsys fs.FS, libFile string) (string, error) {
	norm := normalizeFSPath(libFile)
	if _, err := fs.Stat(fsys, norm); err != nil {
		return "", fmt.Errorf("renderer %s: %w", norm, err)
	}
	root := path.Dir(norm)

	dir, err := os.MkdirTemp("", rendererBaseName+"-*")
	if err != nil {
		return "", fmt.Errorf("creating renderer dir: %w", err)
	}

	// Walk the library's directory and copy each file
	err = fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		if root == "." {
			rel = p
		}
		data, readErr := fs.ReadFile(fsys, p)
		if readErr != nil {
			return fmt.Errorf("reading %s: %w", p, readErr)
		}
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o755)
	})
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("walking FS: %w", err)
	}
	return dir, nil
}
