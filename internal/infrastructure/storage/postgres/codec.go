package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressionAlgo names how a stored payload is encoded.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which snapshots are compressed.
const DefaultCompressThreshold = 8 * 1024

// PayloadCodec stores JSON payloads, compressing the large ones with zstd.
// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
type PayloadCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewPayloadCodec creates a codec; threshold <= 0 uses DefaultCompressThreshold.
func NewPayloadCodec(threshold int) (*PayloadCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &PayloadCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

// EncodedPayload is the column pair a payload is stored in: plain JSON or compressed bytes.
type EncodedPayload struct {
	JSON       json.RawMessage `db:"payload"`
	Compressed []byte          `db:"payload_compressed"`
	Algo       CompressionAlgo `db:"compression_algo"`
}

// Encode marshals v and compresses it when it exceeds the threshold.
func (c *PayloadCodec) Encode(v any) (EncodedPayload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return EncodedPayload{}, fmt.Errorf("marshal payload: %w", err)
	}
	if len(raw) <= c.threshold {
		return EncodedPayload{JSON: raw, Algo: CompressionNone}, nil
	}
	return EncodedPayload{
		Compressed: c.encoder.EncodeAll(raw, nil),
		Algo:       CompressionZstd,
	}, nil
}

// Decode restores an encoded payload into v.
func (c *PayloadCodec) Decode(p EncodedPayload, v any) error {
	raw := []byte(p.JSON)
	switch p.Algo {
	case CompressionZstd:
		out, err := c.decoder.DecodeAll(p.Compressed, nil)
		if err != nil {
			return fmt.Errorf("decompress payload: %w", err)
		}
		raw = out
	case CompressionNone, "":
	default:
		return fmt.Errorf("unknown compression %q", p.Algo)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}
