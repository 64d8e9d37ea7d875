package preparation

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

var (
	blendMagic = []byte("BLENDER")
	gzipMagic  = []byte{0x1f, 0x8b}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// CheckBlendHeader reports whether path starts like a .blend file. Blender
// may save compressed files, so gzip and zstd streams are accepted too.
func CheckBlendHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, len(blendMagic))
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("read header: %w", err)
	}
	header = header[:n]
	switch {
	case bytes.HasPrefix(header, blendMagic),
		bytes.HasPrefix(header, gzipMagic),
		bytes.HasPrefix(header, zstdMagic):
		return nil
	case n == 0:
		return fmt.Errorf("file is empty")
	default:
		return fmt.Errorf("missing BLENDER header")
	}
}
