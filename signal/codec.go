package signal

import "encoding/binary"

// SampleSize is the number of bytes of an encoded sample.
const SampleSize = 2

// EncodeSamples packs samples as little-endian 16-bit words.
func EncodeSamples(samples []Sample) []byte {
	out := make([]byte, SampleSize*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*SampleSize:], uint16(s))
	}

	return out
}

// DecodeSamples unpacks little-endian 16-bit words. A trailing odd byte is
// ignored. Values are not range checked; the detector rejects invalid ones.
func DecodeSamples(data []byte) []Sample {
	n := len(data) / SampleSize

	samples := make([]Sample, n)
	for i := 0; i < n; i++ {
		samples[i] = Sample(binary.LittleEndian.Uint16(data[i*SampleSize:]))
	}

	return samples
}
