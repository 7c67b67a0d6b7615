// Package indexer bulk-imports an existing directory tree into a
// collection by reference: every regular file found is symlink-tagged
// (never copied — write-through file creation is out of scope, but
// linking by reference stays in bounds), with tags inferred from the
// file's extension.
package indexer

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/store"
)

const defaultTag = "uncategorized"

// extensionTags maps a lowercased file extension to the tags a freshly
// discovered file of that type should receive.
var extensionTags = map[string][]string{
	".jpg": {"media", "image"}, ".jpeg": {"media", "image"}, ".png": {"media", "image"},
	".gif": {"media", "image"}, ".bmp": {"media", "image"}, ".tiff": {"media", "image"},
	".tif": {"media", "image"}, ".ico": {"media", "image"}, ".svg": {"media", "image"},
	".psd": {"media", "image"},
	".odt": {"document"}, ".rtf": {"document"}, ".doc": {"document"}, ".docx": {"document"},
	".pages": {"document"}, ".md": {"document"}, ".ps": {"document"}, ".txt": {"document"},
	".pdf": {"document"}, ".eml": {"document", "email"},
	".ppt": {"document", "presentation"}, ".pptx": {"document", "presentation"}, ".key": {"document", "presentation"},
	".xls": {"document", "spreadsheet"}, ".xlsx": {"document", "spreadsheet"}, ".xlsm": {"document", "spreadsheet"},
	".csv": {"document", "spreadsheet"}, ".numbers": {"document", "spreadsheet"}, ".ods": {"document", "spreadsheet"},
	".mp3": {"media", "audio"}, ".wav": {"media", "audio"}, ".wma": {"media", "audio"}, ".cda": {"media", "audio"},
	".mov": {"media", "video"}, ".wmv": {"media", "video"}, ".mp4": {"media", "video"}, ".avi": {"media", "video"},
	".flv": {"media", "video"}, ".mpg": {"media", "video"}, ".mpeg": {"media", "video"},
	".zip": {"archive"}, ".tar": {"archive"}, ".gz": {"archive"}, ".tgz": {"archive"}, ".7z": {"archive"},
	".rar": {"archive"}, ".dmg": {"archive"},
	".java": {"code", "java"}, ".xml": {"code", "xml"}, ".css": {"code", "css", "web"},
	".html": {"code", "html", "web"}, ".htm": {"code", "html", "web"}, ".sh": {"code", "scripts"},
	".py": {"code", "python"}, ".go": {"code", "go"}, ".sql": {"code", "sql"},
	".json": {"code", "javascript"}, ".js": {"code", "javascript", "web"},
}

// IndexPaths walks every root in paths concurrently (one goroutine per
// root, coordinated with golang.org/x/sync/errgroup so a failed walk
// cancels its siblings instead of being silently swallowed) and links
// every regular file found into st.
func IndexPaths(ctx context.Context, st *store.Store, mnt config.Mount, log *slog.Logger, paths []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, root := range paths {
		root := root
		g.Go(func() error {
			return indexPath(gctx, st, mnt, log, root)
		})
	}
	return g.Wait()
}

func indexPath(ctx context.Context, st *store.Store, mnt config.Mount, log *slog.Logger, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if log != nil {
				log.Warn("indexer: stat failed", "path", path, "error", err)
			}
			return nil
		}
		device, inode, ok := devIno(info)
		if !ok {
			return nil
		}

		names := inferTags(path)
		tagIDs := make([]int64, 0, len(names))
		for _, name := range names {
			t, err := st.EnsureTag(name, mnt.UID, mnt.GID, mnt.Permissions)
			if err != nil {
				if log != nil {
					log.Warn("indexer: ensuring tag failed", "tag", name, "error", err)
				}
				continue
			}
			tagIDs = append(tagIDs, t.ID)
		}
		if len(tagIDs) == 0 {
			return nil
		}

		attr := store.FileTagAttr{UID: mnt.UID, GID: mnt.GID, Perm: mnt.Permissions}
		if _, err := st.LinkFile(device, inode, filepath.Base(path), path, nil, tagIDs, attr); err != nil {
			if log != nil {
				log.Warn("indexer: linking file failed", "path", path, "error", err)
			}
		}
		return nil
	})
}

func inferTags(path string) []string {
	ext := strings.ToLower(filepath.Ext(path))
	if tags, ok := extensionTags[ext]; ok {
		return tags
	}
	return []string{defaultTag}
}
