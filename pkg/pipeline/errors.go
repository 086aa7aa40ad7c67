package pipeline

import (
	"errors"
	"fmt"
)

// DefectClass categorizes data-quality defects found during a run. The
// pipeline never fails a run over record-level defects: drop-worthy
// defects exclude a single row, everything else is corrected in place or
// reported as a diagnostic.
type DefectClass int

const (
	DefectNone DefectClass = iota
	// DefectCorrectable covers anomalies repaired in place: bad dates,
	// bad measures, bad codes, bad ids, future birthdates.
	DefectCorrectable
	// DefectDropWorthy covers the single unrecoverable case, an absent
	// customer numeric id.
	DefectDropWorthy
	// DefectUnresolvedRef covers fact rows whose natural key resolves to
	// no dimension row.
	DefectUnresolvedRef
)

// String returns a string representation of the defect class
func (dc DefectClass) String() string {
	switch dc {
	case DefectNone:
		return "None"
	case DefectCorrectable:
		return "Correctable"
	case DefectDropWorthy:
		return "DropWorthy"
	case DefectUnresolvedRef:
		return "UnresolvedRef"
	default:
		return fmt.Sprintf("Unknown(%d)", dc)
	}
}

// Run-fatal conditions. These sit outside the transformation core: an
// unreadable source or a violated structural invariant aborts the run
// before the previous snapshot is replaced.
var (
	// ErrSourceUnavailable indicates the raw snapshot could not be read
	ErrSourceUnavailable = errors.New("raw record source unavailable")

	// ErrInvariantViolation indicates the built snapshot failed
	// structural verification and was not committed
	ErrInvariantViolation = errors.New("conformed snapshot violates structural invariants")
)
