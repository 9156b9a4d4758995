package catalog

import "time"

// Status represents the recorded outcome for one observed file.
type Status string

const (
	// StatusCopied marks a primary file copied into the destination tree.
	StatusCopied Status = "copied"
	// StatusDuplicate marks a file whose digest was already known.
	StatusDuplicate Status = "duplicate"
	// StatusSimulated marks a primary file in a dry run; nothing was copied.
	StatusSimulated Status = "simulated"
	// StatusExisting marks destination content seeded by merge pre-indexing.
	StatusExisting Status = "existing"
	// StatusUnsupported marks files whose extension is not handled.
	StatusUnsupported Status = "unsupported"
	// StatusError marks files whose processing failed.
	StatusError Status = "error"
)

var allStatuses = []Status{
	StatusCopied,
	StatusDuplicate,
	StatusSimulated,
	StatusExisting,
	StatusUnsupported,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// MediaKind classifies a file as photo or video. The string values double as
// destination directory names.
type MediaKind string

const (
	KindPhoto MediaKind = "PHOTO"
	KindVideo MediaKind = "VIDEO"
)

// UnknownDate is the sentinel stored when no capture date could be resolved.
const UnknownDate = "Unknown"

// Record is one row of the ingestion ledger. Rows are append-only: a record
// is inserted exactly once by the worker that processed the file and never
// modified afterwards.
type Record struct {
	ID              int64
	OriginalPath    string
	Digest          string
	Year            string
	Month           string
	MediaKind       MediaKind
	Status          Status
	DestinationPath string
	FinalName       string
	FileSize        int64
	WorkerID        string
	Notes           string
	CreatedAt       time.Time
}

// Stats aggregates ledger rows for reporting. Existing rows come from merge
// pre-indexing and are excluded from TotalFiles so count conservation
// (total == processed + duplicates + unsupported + errors) holds per run.
type Stats struct {
	TotalFiles       int
	ProcessedFiles   int
	DuplicateFiles   int
	UnsupportedFiles int
	ErrorFiles       int
	ExistingFiles    int
	Photos           int
	Videos           int
	BytesCopied      int64
	Yearly           map[string]int
}

// Health reports diagnostic information about the catalog database.
type Health struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	IntegrityCheck   bool
	TotalRecords     int
	Error            string
}
