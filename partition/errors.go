package partition

import (
	"github.com/pkg/errors"

	"github.com/sunlightlabs/cluster-explorer/edgefile"
)

var (
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrUnknownIdentifier   = errors.New("unknown identifier")

	// Edge file failures surface unchanged through MergeFromFile.
	ErrUnreadableFile    = edgefile.ErrUnreadableFile
	ErrTruncatedStream   = edgefile.ErrTruncatedStream
	ErrAllocationFailure = edgefile.ErrAllocationFailure
)
