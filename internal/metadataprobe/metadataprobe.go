// Package metadataprobe implements the metadata probe adapter
// (spec.md §4.6): a thin façade over exiftool/mediainfo shell-outs
// that surfaces probe failures as the SourceCorrupt error kind.
// Probe results report dimensions as the tools return them; they are
// not converted from non-pixel units. UnitToPixels is a standalone
// helper that no probe path calls.
package metadataprobe

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/adobe/asset-compute-pipeline/internal/errors"
)

// Timeout is the hard cap on a video/audio media-info probe (spec.md §4.6).
const Timeout = 30 * time.Second

// Metadata is the probe result.
type Metadata struct {
	Width       int
	Height      int
	Orientation string
	FileType    string
	Duration    time.Duration
}

// Probe is the façade the engine depends on.
type Probe interface {
	ProbeFile(ctx context.Context, path, declaredType string) (Metadata, error)
}

// Adapter shells out to exiftool for images and mediainfo for
// video/audio, chosen by the declared MIME type's prefix; the file
// extension is not consulted. 3D (model/*) formats are skipped (no
// metadata, spec.md §4.6).
type Adapter struct {
	ExiftoolPath  string
	MediainfoPath string

	// Timeout bounds a single shell-out. Defaults to the package Timeout.
	Timeout time.Duration
}

// NewAdapter looks up exiftool/mediainfo on $PATH; a binary that is not
// found leaves its path empty.
func NewAdapter() *Adapter {
	a := &Adapter{Timeout: Timeout}
	if p, err := exec.LookPath("exiftool"); err == nil {
		a.ExiftoolPath = p
	}
	if p, err := exec.LookPath("mediainfo"); err == nil {
		a.MediainfoPath = p
	}
	return a
}

// WithTimeout overrides the probe's shell-out timeout (config.EngineConfig.MetadataProbeTimeout).
func (a *Adapter) WithTimeout(d time.Duration) *Adapter {
	if d > 0 {
		a.Timeout = d
	}
	return a
}

// ProbeFile implements Probe.
func (a *Adapter) ProbeFile(ctx context.Context, path, declaredType string) (Metadata, error) {
	switch family(declaredType) {
	case familyImage:
		return a.probeImage(ctx, path)
	case familyMedia:
		return a.probeMedia(ctx, path)
	case family3D:
		return Metadata{}, nil
	default:
		return a.probeImage(ctx, path)
	}
}

type assetFamily int

const (
	familyUnknown assetFamily = iota
	familyImage
	familyMedia
	family3D
)

func family(mimeType string) assetFamily {
	switch {
	case strings.HasPrefix(mimeType, "image/svg"):
		return familyImage
	case strings.HasPrefix(mimeType, "image/"):
		return familyImage
	case strings.HasPrefix(mimeType, "video/"), strings.HasPrefix(mimeType, "audio/"):
		return familyMedia
	case strings.HasPrefix(mimeType, "model/"):
		return family3D
	default:
		return familyUnknown
	}
}

// exiftoolEntry mirrors the fields exiftool -j emits that this adapter reads.
type exiftoolEntry struct {
	ImageWidth   json.Number `json:"ImageWidth"`
	ImageHeight  json.Number `json:"ImageHeight"`
	Orientation  string      `json:"Orientation"`
	FileType     string      `json:"FileType"`
	MIMEType     string      `json:"MIMEType"`
}

func (a *Adapter) probeImage(ctx context.Context, path string) (Metadata, error) {
	if a.ExiftoolPath == "" {
		return a.rasterFallback(ctx, path)
	}

	out, err := a.run(ctx, a.ExiftoolPath, a.Timeout, "-j", "-Orientation#", "-FileType", "-MIMEType", "-ImageWidth", "-ImageHeight", path)
	if err != nil {
		return a.rasterFallback(ctx, path)
	}

	var entries []exiftoolEntry
	if err := json.Unmarshal(out, &entries); err != nil || len(entries) == 0 {
		return a.rasterFallback(ctx, path)
	}

	e := entries[0]
	width, _ := e.ImageWidth.Int64()
	height, _ := e.ImageHeight.Int64()

	fileType := e.FileType
	// SVG is sometimes misidentified by exiftool as XMP (spec.md §4.6).
	if strings.EqualFold(fileType, "XMP") && looksLikeSVG(path) {
		fileType = "SVG"
	}

	return Metadata{
		Width:       int(width),
		Height:      int(height),
		Orientation: e.Orientation,
		FileType:    fileType,
	}, nil
}

func (a *Adapter) rasterFallback(ctx context.Context, path string) (Metadata, error) {
	w, h, err := rasterDimensions(path)
	if err != nil {
		return Metadata{}, errors.NewSourceCorrupt("metadata probe failed and raster introspection found no usable header", "metadataprobe.probeImage")
	}
	return Metadata{Width: w, Height: h}, nil
}

func (a *Adapter) probeMedia(ctx context.Context, path string) (Metadata, error) {
	if a.MediainfoPath == "" {
		return Metadata{}, nil
	}

	out, err := a.run(ctx, a.MediainfoPath, a.Timeout, "--Output=JSON", path)
	if err != nil {
		return Metadata{}, errors.NewSourceCorrupt("mediainfo probe failed or timed out", "metadataprobe.probeMedia")
	}

	var doc mediainfoDoc
	if err := json.Unmarshal(out, &doc); err != nil {
		return Metadata{}, errors.NewSourceCorrupt("mediainfo returned unparseable output", "metadataprobe.probeMedia")
	}

	var md Metadata
	for _, track := range doc.Media.Track {
		if track.Type == "Video" {
			if w, err := strconv.Atoi(track.Width); err == nil {
				md.Width = w
			}
			if h, err := strconv.Atoi(track.Height); err == nil {
				md.Height = h
			}
		}
		if track.Duration != "" {
			if seconds, err := strconv.ParseFloat(track.Duration, 64); err == nil {
				md.Duration = time.Duration(seconds * float64(time.Second))
			}
		}
	}
	return md, nil
}

type mediainfoDoc struct {
	Media struct {
		Track []struct {
			Type     string `json:"@type"`
			Width    string `json:"Width"`
			Height   string `json:"Height"`
			Duration string `json:"Duration"`
		} `json:"track"`
	} `json:"media"`
}

func (a *Adapter) run(ctx context.Context, binary string, timeout time.Duration, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return exec.CommandContext(ctx, binary, args...).Output()
}

// UnitToPixels converts a dimension expressed in a non-pixel unit to
// pixels at the given DPI (spec.md §4.6: pt, cm, mm, in, pc all convert).
func UnitToPixels(value float64, unit string, dpi float64) float64 {
	if dpi <= 0 {
		dpi = 96
	}
	switch strings.ToLower(unit) {
	case "px", "":
		return value
	case "in":
		return value * dpi
	case "pt":
		return value * dpi / 72
	case "pc":
		return value * dpi / 6
	case "cm":
		return value * dpi / 2.54
	case "mm":
		return value * dpi / 25.4
	default:
		return value
	}
}
