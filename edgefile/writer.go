package edgefile

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Writer accumulates pairs and serializes them as a single compressed block.
type Writer struct {
	payload []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Add(a, b int32) {
	var rec [recordSize]byte
	binary.LittleEndian.PutUint32(rec[0:4], uint32(a))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(b))
	w.payload = append(w.payload, rec[:]...)
}

// Len returns the number of pairs added so far.
func (w *Writer) Len() int {
	return len(w.payload) / recordSize
}

// Bytes returns the encoded file content.
func (w *Writer) Bytes() ([]byte, error) {
	out := make([]byte, headerSize+lz4.CompressBlockBound(len(w.payload)))
	binary.LittleEndian.PutUint32(out, uint32(len(w.payload)))
	if len(w.payload) == 0 {
		// An empty block is a single zero token.
		return out[:headerSize+1], nil
	}
	var c lz4.Compressor
	n, err := c.CompressBlock(w.payload, out[headerSize:])
	if err != nil {
		return nil, errors.Wrap(err, "could not compress edges")
	}
	if n == 0 {
		return nil, errors.New("could not compress edges: block does not fit")
	}
	return out[:headerSize+n], nil
}

func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	data, err := w.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, bytes.NewReader(data))
	return n, err
}

// WriteFile writes pairs to a new edge file at path.
func WriteFile(path string, pairs []Pair) error {
	w := NewWriter()
	for _, p := range pairs {
		w.Add(p.A, p.B)
	}
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	_, err = w.WriteTo(fp)
	if err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
