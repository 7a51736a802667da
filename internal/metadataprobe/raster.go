package metadataprobe

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// rasterDimensions reads a raster image's own header to recover width
// and height when exiftool is unavailable or fails to identify the
// format (spec.md §4.6 fallback path). It understands PNG, GIF and
// JPEG, the three formats the fallback is expected to carry.
func rasterDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	// Peek returns whatever bytes are available alongside an error when
	// the file is shorter than 24 bytes; each format checks its own
	// minimum length below.
	header, err := r.Peek(24)
	if err != nil && len(header) == 0 {
		return 0, 0, err
	}

	switch {
	case isPNG(header):
		return pngDimensions(header)
	case isGIF(header):
		return gifDimensions(header)
	case isJPEG(header):
		return jpegDimensions(r)
	default:
		return 0, 0, fmt.Errorf("unrecognized raster header")
	}
}

func isPNG(h []byte) bool {
	return len(h) >= 8 && string(h[:8]) == "\x89PNG\r\n\x1a\n"
}

func pngDimensions(h []byte) (int, int, error) {
	if len(h) < 24 {
		return 0, 0, fmt.Errorf("truncated PNG header")
	}
	width := int(binary.BigEndian.Uint32(h[16:20]))
	height := int(binary.BigEndian.Uint32(h[20:24]))
	return width, height, nil
}

func isGIF(h []byte) bool {
	return len(h) >= 6 && (string(h[:6]) == "GIF87a" || string(h[:6]) == "GIF89a")
}

func gifDimensions(h []byte) (int, int, error) {
	if len(h) < 10 {
		return 0, 0, fmt.Errorf("truncated GIF header")
	}
	width := int(binary.LittleEndian.Uint16(h[6:8]))
	height := int(binary.LittleEndian.Uint16(h[8:10]))
	return width, height, nil
}

func isJPEG(h []byte) bool {
	return len(h) >= 2 && h[0] == 0xFF && h[1] == 0xD8
}

func jpegDimensions(r *bufio.Reader) (int, int, error) {
	buf := make([]byte, 2)
	if _, err := r.Discard(2); err != nil {
		return 0, 0, err
	}

	for {
		if _, err := readFull(r, buf); err != nil {
			return 0, 0, err
		}
		if buf[0] != 0xFF {
			return 0, 0, fmt.Errorf("malformed JPEG marker")
		}
		marker := buf[1]

		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			continue
		}
		if marker == 0xD9 {
			return 0, 0, fmt.Errorf("reached end of JPEG without SOF marker")
		}

		lenBuf := make([]byte, 2)
		if _, err := readFull(r, lenBuf); err != nil {
			return 0, 0, err
		}
		segmentLen := int(lenBuf[0])<<8 | int(lenBuf[1])

		isSOF := marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC
		if isSOF {
			data := make([]byte, 5)
			if _, err := readFull(r, data); err != nil {
				return 0, 0, err
			}
			height := int(data[1])<<8 | int(data[2])
			width := int(data[3])<<8 | int(data[4])
			return width, height, nil
		}

		if _, err := r.Discard(segmentLen - 2); err != nil {
			return 0, 0, err
		}
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// looksLikeSVG sniffs the first kilobyte of path for an <svg element,
// used to correct exiftool misidentifying SVG as XMP (spec.md §4.6).
func looksLikeSVG(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 1024)
	n, _ := f.Read(buf)
	return strings.Contains(strings.ToLower(string(buf[:n])), "<svg")
}
