package metadataprobe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitToPixels(t *testing.T) {
	cases := []struct {
		value float64
		unit  string
		dpi   float64
		want  float64
	}{
		{1, "in", 96, 96},
		{72, "pt", 72, 72},
		{1, "px", 96, 1},
		{2.54, "cm", 96, 96},
		{25.4, "mm", 96, 96},
		{6, "pc", 72, 72},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, UnitToPixels(c.value, c.unit, c.dpi), 0.01)
	}
}

func TestUnitToPixelsDefaultsDPI(t *testing.T) {
	assert.InDelta(t, 96, UnitToPixels(1, "in", 0), 0.01)
}

func TestFamilyClassification(t *testing.T) {
	assert.Equal(t, familyImage, family("image/png"))
	assert.Equal(t, familyImage, family("image/svg+xml"))
	assert.Equal(t, familyMedia, family("video/mp4"))
	assert.Equal(t, familyMedia, family("audio/mpeg"))
	assert.Equal(t, family3D, family("model/gltf-binary"))
	assert.Equal(t, familyUnknown, family("application/octet-stream"))
}

func TestRasterDimensionsPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(path, pngFixture(10, 20), 0o644))

	w, h, err := rasterDimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 10, w)
	assert.Equal(t, 20, h)
}

func TestRasterDimensionsGIF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.gif")
	require.NoError(t, os.WriteFile(path, gifFixture(30, 40), 0o644))

	w, h, err := rasterDimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 30, w)
	assert.Equal(t, 40, h)
}

func TestRasterDimensionsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, _, err := rasterDimensions(path)
	assert.Error(t, err)
}

func TestLooksLikeSVG(t *testing.T) {
	dir := t.TempDir()
	svgPath := filepath.Join(dir, "a.svg")
	require.NoError(t, os.WriteFile(svgPath, []byte("<?xml version=\"1.0\"?><svg xmlns=\"x\"></svg>"), 0o644))
	assert.True(t, looksLikeSVG(svgPath))

	xmpPath := filepath.Join(dir, "a.xmp")
	require.NoError(t, os.WriteFile(xmpPath, []byte("<x:xmpmeta></x:xmpmeta>"), 0o644))
	assert.False(t, looksLikeSVG(xmpPath))
}

func TestAdapterProbeFileFallsBackWithoutExiftool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(path, pngFixture(5, 6), 0o644))

	a := &Adapter{}
	md, err := a.ProbeFile(nil, path, "image/png") //nolint:staticcheck // nil Context ok: adapter falls back before using ctx
	require.NoError(t, err)
	assert.Equal(t, 5, md.Width)
	assert.Equal(t, 6, md.Height)
}

func TestAdapterProbeFileSkips3D(t *testing.T) {
	a := &Adapter{}
	md, err := a.ProbeFile(nil, "/does/not/matter", "model/gltf-binary") //nolint:staticcheck
	require.NoError(t, err)
	assert.Equal(t, Metadata{}, md)
}

func TestAdapterProbeFileCorruptFallbackFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	a := &Adapter{}
	_, err := a.ProbeFile(nil, path, "image/png") //nolint:staticcheck
	assert.Error(t, err)
}

func TestParseBinaryVersion(t *testing.T) {
	assert.Equal(t, "12.70", parseBinaryVersion("exiftool", "12.70\n"))
	assert.Equal(t, "23.04", parseBinaryVersion("mediainfo", "MediaInfoLib - v23.04\n"))
}

func TestDetectBinaryAbsent(t *testing.T) {
	info := DetectBinary("definitely-not-a-real-binary-xyz")
	assert.False(t, info.Found)
}

func pngFixture(width, height uint32) []byte {
	buf := make([]byte, 33)
	copy(buf[:8], []byte("\x89PNG\r\n\x1a\n"))
	putBE32(buf[16:20], width)
	putBE32(buf[20:24], height)
	return buf
}

func putBE32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func gifFixture(width, height uint16) []byte {
	buf := make([]byte, 13)
	copy(buf[:6], []byte("GIF89a"))
	buf[6] = byte(width)
	buf[7] = byte(width >> 8)
	buf[8] = byte(height)
	buf[9] = byte(height >> 8)
	return buf
}
