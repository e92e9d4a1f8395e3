package partition

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sunlightlabs/cluster-explorer/edgefile"
)

// UnknownPolicy tells Ingest what to do with an edge referencing an
// identifier outside the partition universe.
type UnknownPolicy int

const (
	// AbortOnUnknown resolves every edge before merging anything, and fails
	// with ErrUnknownIdentifier leaving the partition untouched.
	AbortOnUnknown UnknownPolicy = iota
	// SkipUnknown drops offending edges and merges the others.
	SkipUnknown
)

func (p UnknownPolicy) String() string {
	switch p {
	case AbortOnUnknown:
		return "abort"
	case SkipUnknown:
		return "skip"
	}
	return "unknown"
}

type IngestOptions struct {
	OnUnknown UnknownPolicy
	Logger    logrus.FieldLogger
}

type IngestStats struct {
	// Pairs read from the stream.
	Pairs int
	// Merged counts pairs which joined two distinct classes.
	Merged int
	// Skipped counts pairs dropped by SkipUnknown.
	Skipped int
}

func nullLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// MergeFromFile merges every pair of the edge file at path, aborting on
// unknown identifiers.
func (p *Partition) MergeFromFile(path string) error {
	_, err := p.MergeFile(path, IngestOptions{})
	return err
}

// MergeFile decodes the edge file at path and ingests it. Decoding failures
// leave the partition unchanged.
func (p *Partition) MergeFile(path string, opts IngestOptions) (IngestStats, error) {
	r, err := edgefile.Open(path)
	if err != nil {
		return IngestStats{}, err
	}
	stats, err := p.Ingest(r, opts)
	if err != nil {
		return stats, errors.Wrap(err, path)
	}
	return stats, nil
}

// Ingest merges the remaining pairs of r in stream order.
func (p *Partition) Ingest(r *edgefile.Reader, opts IngestOptions) (IngestStats, error) {
	log := opts.Logger
	if log == nil {
		log = nullLogger()
	}
	switch opts.OnUnknown {
	case AbortOnUnknown:
		return p.ingestAtomic(r)
	case SkipUnknown:
		return p.ingestSkipping(r, log)
	}
	return IngestStats{}, errors.Errorf("invalid unknown identifier policy: %d", opts.OnUnknown)
}

func (p *Partition) ingestAtomic(r *edgefile.Reader) (IngestStats, error) {
	stats := IngestStats{}
	positions := make([]int32, 0, 2*r.Remaining())
	for r.Next() {
		pair := r.Pair()
		pa, err := p.index.Position(pair.A)
		if err != nil {
			return IngestStats{}, errors.Wrapf(err, "pair %d", stats.Pairs)
		}
		pb, err := p.index.Position(pair.B)
		if err != nil {
			return IngestStats{}, errors.Wrapf(err, "pair %d", stats.Pairs)
		}
		positions = append(positions, int32(pa), int32(pb))
		stats.Pairs++
	}
	if r.Err() != nil {
		return IngestStats{}, r.Err()
	}
	for i := 0; i < len(positions); i += 2 {
		if p.uf.Merge(int(positions[i]), int(positions[i+1])) {
			stats.Merged++
		}
	}
	return stats, nil
}

func (p *Partition) ingestSkipping(r *edgefile.Reader, log logrus.FieldLogger) (IngestStats, error) {
	stats := IngestStats{}
	for r.Next() {
		pair := r.Pair()
		merged, err := p.merge(pair.A, pair.B)
		if err != nil {
			log.WithFields(logrus.Fields{
				"pair":  stats.Pairs,
				"left":  pair.A,
				"right": pair.B,
			}).WithError(err).Debug("skipping edge")
			stats.Skipped++
		} else if merged {
			stats.Merged++
		}
		stats.Pairs++
	}
	return stats, r.Err()
}
