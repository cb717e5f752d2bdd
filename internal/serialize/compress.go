// Package serialize provides Arrow IPC serialization and ZStandard
// compression for catalog listings and search page tokens.
package serialize

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec compresses and decompresses ZStandard frames. EncodeAll and
// DecodeAll are goroutine-safe, so one Codec serves every request.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec returns a Codec whose decoder refuses output larger than
// maxSize bytes. Zero keeps the zstd default limit.
func NewCodec(maxSize uint64) (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("serialize: zstd encoder: %w", err)
	}

	opts := []zstd.DOption{zstd.WithDecoderConcurrency(0)}
	if maxSize > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(maxSize))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("serialize: zstd decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Compress returns data as one zstd frame. Empty input stays empty.
func (c *Codec) Compress(data []byte) []byte {
	if len(data) == 0 {
		return []byte{}
	}
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2))
}

// Decompress reverses Compress.
func (c *Codec) Decompress(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return []byte{}, nil
	}
	data, err := c.dec.DecodeAll(frame, nil)
	if err != nil {
		return nil, fmt.Errorf("serialize: decompress: %w", err)
	}
	return data, nil
}

// Close releases the encoder and the decoder goroutines.
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}
