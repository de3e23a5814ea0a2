package transfer

import (
	"context"
	"io"

	"github.com/1930s/Podcast-Server/downloader"
)

// progressReader reports every read to the task
type progressReader struct {
	reader io.Reader
	task   downloader.Task
	done   int64
	total  int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.done += int64(n)
		pr.task.Progress(pr.done, pr.total)
	}
	return n, err
}

// copyChunks copies src into dst one chunk at a time, returning ErrTransferStopped
// as soon as the task is stopped or ctx is done
func copyChunks(ctx context.Context, task downloader.Task, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64

	for {
		if task.Stopped() {
			return written, downloader.ErrTransferStopped
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			w, err := dst.Write(buf[:n])
			written += int64(w)
			if err != nil {
				return written, err
			}
			if w != n {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
