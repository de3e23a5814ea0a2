package downloader

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// TargetFile returns the working file of the current attempt, resolving it once.
// A resolution failure stops the download.
func (d *Downloader) TargetFile() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	target, err := d.resolveTargetLocked()
	if err != nil {
		d.logger.Error("failed to resolve target file", zap.Error(err))
		d.stopLocked()
		return "", err
	}
	return target, nil
}

func (d *Downloader) resolveTargetLocked() (string, error) {
	if d.target != "" {
		return d.target, nil
	}

	name := d.fileNameLocked()
	if name == "" {
		return "", NewDownloadErrorWithCause(ErrorInvalidURL, "cannot derive a file name", ErrNoTarget).
			WithContext("url", d.downloadingItem.URLOrDefault())
	}

	finalPath := filepath.Join(d.opts.RootFolder, folderName(d.item.PodcastTitle()), name)
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fsError("failed to create podcast folder", dir, err)
	}

	working := finalPath + d.opts.TemporaryExtension
	finalExists, err := exists(finalPath)
	if err != nil {
		return "", fsError("failed to check final file", finalPath, err)
	}
	workingExists, err := exists(working)
	if err != nil {
		return "", fsError("failed to check working file", working, err)
	}

	if !finalExists && !workingExists {
		d.target = working
		return d.target, nil
	}

	doublon, err := createDoublon(dir, name, d.opts.TemporaryExtension)
	if err != nil {
		return "", fsError("failed to create uniquified file", dir, err)
	}
	d.logger.Info("doublon detected",
		zap.String("podcast", d.item.PodcastTitle()),
		zap.String("file", doublon))

	d.target = doublon
	return d.target, nil
}

// fileNameLocked picks the explicit file name, then the strategy name, then the URL base name
func (d *Downloader) fileNameLocked() string {
	if d.downloadingItem.HasFilename() {
		return filepath.Base(d.downloadingItem.Filename)
	}
	rawURL := d.downloadingItem.URLOrDefault()
	if namer, ok := d.transfer.(Namer); ok {
		if name := namer.FileName(rawURL); name != "" {
			return name
		}
	}
	return FileNameFromURL(rawURL)
}

// FileNameFromURL returns the last path segment of a URL, query and fragment stripped
func FileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return filepath.Base(name)
}

// createDoublon creates an empty file "<base>-<random><ext><tmpExt>" next to the final one
func createDoublon(dir, name, tmpExt string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	f, err := os.CreateTemp(dir, base+"-*"+ext+tmpExt)
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func exists(p string) (bool, error) {
	_, err := os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// folderName keeps a podcast title from escaping the root folder
func folderName(title string) string {
	title = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(title))
	if title == "" || title == "." || title == ".." {
		return "_"
	}
	return title
}

func fsError(message, p string, cause error) *DownloadError {
	return NewDownloadErrorWithCause(ErrorFileSystem, message, errors.Join(ErrNoTarget, cause)).
		WithContext("path", p)
}
