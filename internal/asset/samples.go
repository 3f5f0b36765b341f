package asset

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeSamples serializes interleaved PCM samples as little-endian float32.
func EncodeSamples(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

// DecodeSamples parses little-endian float32 PCM produced by EncodeSamples.
func DecodeSamples(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("decode samples: length %d is not a multiple of 4", len(raw))
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}
