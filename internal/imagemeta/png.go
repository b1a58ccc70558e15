package imagemeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Dimensions holds the width and height an image declares in its header.
type Dimensions struct {
	Width  int
	Height int
}

// FormatError reports a file that is not a readable PNG. Callers computing
// aspect ratios are expected to recover with a default ratio instead of
// propagating it.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("imagemeta: %s", e.Reason)
}

// headerSize covers the PNG signature plus the IHDR chunk up to the height
// field: 8 signature bytes, 4 length bytes, 4 type bytes, 4+4 dimension bytes.
const headerSize = 24

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// ReadDimensions extracts width and height from the IHDR chunk of the PNG at
// path without decoding pixel data. It reads at most the first 24 bytes.
func ReadDimensions(path string) (Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer func() {
		_ = file.Close()
	}()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(file, header); err != nil {
		return Dimensions{}, &FormatError{Reason: fmt.Sprintf("file shorter than PNG header: %v", err)}
	}
	return ParseDimensions(header)
}

// ParseDimensions reads width and height from in-memory PNG header bytes.
// Width sits at offset 16 and height at offset 20, both big-endian uint32.
func ParseDimensions(data []byte) (Dimensions, error) {
	if len(data) < headerSize {
		return Dimensions{}, &FormatError{Reason: fmt.Sprintf("data too short for IHDR (%d bytes)", len(data))}
	}
	if !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return Dimensions{}, &FormatError{Reason: "missing PNG signature"}
	}

	width := binary.BigEndian.Uint32(data[16:20])
	height := binary.BigEndian.Uint32(data[20:24])
	if width == 0 || height == 0 {
		return Dimensions{}, &FormatError{Reason: fmt.Sprintf("invalid dimensions %dx%d", width, height)}
	}

	return Dimensions{Width: int(width), Height: int(height)}, nil
}
