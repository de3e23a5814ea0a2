// Package mimetype probes the content type of downloaded files and tags mp4 audio.
package mimetype

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/abema/go-mp4"
	"go.uber.org/zap"
)

const fallbackType = "application/octet-stream"

// byExtension covers podcast formats the stdlib tables and sniffer get wrong or miss
var byExtension = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".m4b":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".ts":   "video/mp2t",
}

var audioBrands = map[string]bool{
	"M4A ": true,
	"M4B ": true,
	"M4P ": true,
}

// Prober implements content type detection for finalized downloads
type Prober struct {
	logger *zap.Logger
}

// NewProber creates a prober
func NewProber(logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{logger: logger.Named("mimetype")}
}

// ProbeContentType inspects the file at path, never failing: unknown content is application/octet-stream
func (p *Prober) ProbeContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	if isMP4Extension(ext) {
		mt, err := probeMP4(path, ext)
		if err == nil {
			return mt
		}
		p.logger.Debug("mp4 probe failed", zap.String("path", path), zap.Error(err))
	}

	if mt, ok := byExtension[ext]; ok {
		return mt
	}

	sniffed, err := sniff(path)
	if err != nil {
		p.logger.Debug("content sniffing failed", zap.String("path", path), zap.Error(err))
	}
	if sniffed == "video/mp4" {
		if mt, err := probeMP4(path, ext); err == nil {
			return mt
		}
	}
	if sniffed != "" && sniffed != fallbackType {
		return sniffed
	}

	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return fallbackType
}

func isMP4Extension(ext string) bool {
	switch ext {
	case ".mp4", ".m4a", ".m4b", ".m4v", ".m4p":
		return true
	}
	return false
}

// probeMP4 reads the ftyp box to tell mp4 audio from mp4 video
func probeMP4(path, ext string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	boxes, err := mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeFtyp()})
	if err != nil {
		return "", err
	}
	if len(boxes) == 0 {
		return "", errors.New("no ftyp box")
	}

	ftyp, ok := boxes[0].Payload.(*mp4.Ftyp)
	if !ok {
		return "", errors.New("unexpected ftyp payload")
	}

	if audioBrands[string(ftyp.MajorBrand[:])] {
		return "audio/mp4", nil
	}
	for _, brand := range ftyp.CompatibleBrands {
		if audioBrands[string(brand.CompatibleBrand[:])] {
			return "audio/mp4", nil
		}
	}
	if ext == ".m4a" || ext == ".m4b" {
		return "audio/mp4", nil
	}
	return "video/mp4", nil
}

func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	return http.DetectContentType(buf[:n]), nil
}
