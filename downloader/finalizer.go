package downloader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// finalizeLocked moves the working file to its definitive name and stamps the item
func (d *Downloader) finalizeLocked() error {
	ext := d.opts.TemporaryExtension
	if ext != "" && strings.HasSuffix(d.target, ext) {
		definitive := strings.TrimSuffix(d.target, ext)

		if err := os.Remove(definitive); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return NewDownloadErrorWithCause(ErrorFileSystem, "failed to remove previous file", err).
				WithContext("path", definitive)
		}
		if err := os.Rename(d.target, definitive); err != nil {
			return NewDownloadErrorWithCause(ErrorFileSystem, "failed to rename working file", err).
				WithContext("from", d.target).
				WithContext("to", definitive)
		}
		d.target = definitive
	}

	info, err := os.Stat(d.target)
	if err != nil {
		return NewDownloadErrorWithCause(ErrorFileSystem, "failed to stat downloaded file", err).
			WithContext("path", d.target)
	}

	d.item.Length = info.Size()
	if d.deps.Prober != nil {
		d.item.MimeType = d.deps.Prober.ProbeContentType(d.target)
	}
	d.item.FileName = filepath.Base(d.target)
	d.item.Progression = 100
	now := d.now()
	d.item.DownloadDate = &now
	return nil
}

func (d *Downloader) runFinishHooksLocked() {
	item := d.item.Snapshot()
	for _, hook := range d.deps.FinishHooks {
		if err := hook.OnFinish(d.persistCtx, item, d.target); err != nil {
			d.logger.Warn("finish hook failed", zap.String("file", d.target), zap.Error(err))
		}
	}
}

// deleteTargetLocked removes the working file; a failure is only logged
func (d *Downloader) deleteTargetLocked() {
	if d.target == "" {
		return
	}
	if err := os.Remove(d.target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.logger.Warn("failed to delete working file", zap.String("target", d.target), zap.Error(err))
	}
}
