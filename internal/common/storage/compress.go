package storage

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// ZstdContentType is stored alongside zstd-compressed objects.
const ZstdContentType = "application/zstd"

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// CompressZstd compresses data in a single shot.
func CompressZstd(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

// DecompressZstd reverses CompressZstd.
func DecompressZstd(data []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode failed: %w", err)
	}
	return out, nil
}
