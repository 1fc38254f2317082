package catalog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/intel/clGPU/codec"
	"github.com/intel/clGPU/internal/hash"
)

var (
	// ErrCorrupt is returned when a snapshot fails validation.
	ErrCorrupt = errors.New("catalog: corrupt snapshot")
	// ErrNoSnapshot is returned by Load when the store has no CURRENT pointer.
	ErrNoSnapshot = errors.New("catalog: no snapshot")
)

const (
	magic         = "CLGC"
	formatVersion = 1
	headerSize    = 24
)

// Entry is one persisted primitive.
type Entry struct {
	Module string `json:"module,omitempty"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Snapshot is the decoded content of a catalog blob.
type Snapshot struct {
	Version uint32    `json:"version"`
	Created time.Time `json:"created"`
	Entries []Entry   `json:"entries"`
}

// Header describes a snapshot without decoding its payload.
type Header struct {
	Version     uint32
	Compression Compression
	Codec       string
	Checksum    uint32
	RawLen      int
	PayloadLen  int
}

// Encode serializes s with c, compresses it and frames it.
func Encode(s *Snapshot, c codec.Codec, comp Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	name := c.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("catalog: codec name %q too long", name)
	}

	raw, err := c.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode with %s: %w", name, err)
	}
	payload, applied, err := compress(raw, comp)
	if err != nil {
		return nil, fmt.Errorf("catalog: compress: %w", err)
	}

	out := make([]byte, headerSize, headerSize+len(name)+len(payload))
	copy(out, magic)
	out[4] = formatVersion
	out[5] = byte(applied)
	out[6] = byte(len(name))
	binary.LittleEndian.PutUint32(out[8:], s.Version)
	binary.LittleEndian.PutUint32(out[12:], hash.CRC32C(payload))
	binary.LittleEndian.PutUint32(out[16:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(out[20:], uint32(len(payload)))
	out = append(out, name...)
	return append(out, payload...), nil
}

// ReadHeader parses the fixed header and the codec name.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(data))
	}
	if string(data[:4]) != magic {
		return Header{}, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if data[4] != formatVersion {
		return Header{}, fmt.Errorf("%w: format version %d", ErrCorrupt, data[4])
	}
	nameLen := int(data[6])
	if len(data) < headerSize+nameLen {
		return Header{}, fmt.Errorf("%w: truncated codec name", ErrCorrupt)
	}
	return Header{
		Version:     binary.LittleEndian.Uint32(data[8:]),
		Compression: Compression(data[5]),
		Codec:       string(data[headerSize : headerSize+nameLen]),
		Checksum:    binary.LittleEndian.Uint32(data[12:]),
		RawLen:      int(binary.LittleEndian.Uint32(data[16:])),
		PayloadLen:  int(binary.LittleEndian.Uint32(data[20:])),
	}, nil
}

// Decode validates and decodes a framed snapshot.
func Decode(data []byte) (*Snapshot, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	payload := data[headerSize+len(h.Codec):]
	if len(payload) != h.PayloadLen {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(payload), h.PayloadLen)
	}
	if sum := hash.CRC32C(payload); sum != h.Checksum {
		return nil, fmt.Errorf("%w: checksum %08x, want %08x", ErrCorrupt, sum, h.Checksum)
	}
	c, ok := codec.ByName(h.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrCorrupt, h.Codec)
	}

	raw, err := decompress(payload, h.Compression, h.RawLen)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := c.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if s.Version != h.Version {
		return nil, fmt.Errorf("%w: version %d in header, %d in payload", ErrCorrupt, h.Version, s.Version)
	}
	return &s, nil
}
