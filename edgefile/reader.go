// Package edgefile reads and writes compressed edge lists.
//
// An edge file starts with the uncompressed payload size as a little-endian
// uint32, followed by a single LZ4 block. The payload is a packed sequence of
// 8-byte records, each holding two little-endian int32 identifiers.
package edgefile

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

const (
	headerSize = 4
	recordSize = 8

	// DefaultMaxPayload bounds the declared uncompressed size accepted by
	// Decode and Open.
	DefaultMaxPayload = 1 << 30
)

var (
	ErrUnreadableFile    = errors.New("unreadable edge file")
	ErrTruncatedStream   = errors.New("truncated edge stream")
	ErrAllocationFailure = errors.New("allocation failure")
)

// Pair is one edge: two identifiers declared equivalent.
type Pair struct {
	A int32
	B int32
}

type options struct {
	maxPayload uint32
}

type Option func(*options)

// WithMaxPayload rejects files declaring more than n uncompressed bytes.
func WithMaxPayload(n uint32) Option {
	return func(o *options) {
		o.maxPayload = n
	}
}

// Reader yields the pairs of a fully decompressed edge payload, in file
// order. It cannot be rewound.
type Reader struct {
	payload []byte
	offset  int
	pair    Pair
	err     error
}

// Open reads the whole file at path and decodes it.
func Open(path string, opts ...Option) (*Reader, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadableFile, "%s", err)
	}
	defer fp.Close()
	data, err := io.ReadAll(fp)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreadableFile, "%s: %s", path, err)
	}
	r, err := Decode(data, opts...)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return r, nil
}

// Decode decompresses data and validates the payload layout. No pair is
// available before the whole block has been decompressed.
func Decode(data []byte, opts ...Option) (*Reader, error) {
	o := options{
		maxPayload: DefaultMaxPayload,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if len(data) < headerSize {
		return nil, errors.Wrapf(ErrTruncatedStream,
			"header needs %d bytes, got %d", headerSize, len(data))
	}
	size := binary.LittleEndian.Uint32(data)
	if size > o.maxPayload {
		return nil, errors.Wrapf(ErrAllocationFailure,
			"declared payload of %d bytes exceeds limit of %d", size, o.maxPayload)
	}
	if size%recordSize != 0 {
		return nil, errors.Wrapf(ErrTruncatedStream,
			"payload size %d is not a multiple of %d", size, recordSize)
	}
	payload := make([]byte, size)
	if size > 0 {
		n, err := lz4.UncompressBlock(data[headerSize:], payload)
		if err != nil {
			return nil, errors.Wrapf(ErrTruncatedStream,
				"could not decompress block: %s", err)
		}
		if n != int(size) {
			return nil, errors.Wrapf(ErrTruncatedStream,
				"declared %d uncompressed bytes, got %d", size, n)
		}
	}
	return &Reader{
		payload: payload,
	}, nil
}

// Next advances to the following pair. It returns false once the payload is
// exhausted.
func (r *Reader) Next() bool {
	if r.err != nil || r.offset >= len(r.payload) {
		return false
	}
	if len(r.payload)-r.offset < recordSize {
		r.err = errors.Wrapf(ErrTruncatedStream, "partial record at offset %d", r.offset)
		return false
	}
	rec := r.payload[r.offset : r.offset+recordSize]
	r.pair.A = int32(binary.LittleEndian.Uint32(rec[0:4]))
	r.pair.B = int32(binary.LittleEndian.Uint32(rec[4:8]))
	r.offset += recordSize
	return true
}

// Pair returns the pair read by the last successful Next.
func (r *Reader) Pair() Pair {
	return r.pair
}

func (r *Reader) Err() error {
	return r.err
}

// Len returns the total number of pairs in the payload.
func (r *Reader) Len() int {
	return len(r.payload) / recordSize
}

// Remaining returns the number of pairs not yet returned by Next.
func (r *Reader) Remaining() int {
	return (len(r.payload) - r.offset) / recordSize
}
