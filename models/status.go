package models

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "ACTIVE"
	ProjectArchived ProjectStatus = "ARCHIVED"
)

func (s ProjectStatus) Valid() bool {
	return s == ProjectActive || s == ProjectArchived
}

type UploadStatus string

const (
	UploadUploaded UploadStatus = "UPLOADED"
	UploadParsing  UploadStatus = "PARSING"
	UploadParsed   UploadStatus = "PARSED"
	UploadFailed   UploadStatus = "FAILED"
)

func (s UploadStatus) Valid() bool {
	switch s {
	case UploadUploaded, UploadParsing, UploadParsed, UploadFailed:
		return true
	}
	return false
}

type ExtractionStatus string

const (
	ExtractionPending    ExtractionStatus = "PENDING"
	ExtractionInProgress ExtractionStatus = "IN_PROGRESS"
	ExtractionCompleted  ExtractionStatus = "COMPLETED"
	ExtractionFailed     ExtractionStatus = "FAILED"
)

func (s ExtractionStatus) Valid() bool {
	switch s {
	case ExtractionPending, ExtractionInProgress, ExtractionCompleted, ExtractionFailed:
		return true
	}
	return false
}

type ReviewStatus string

const (
	ReviewConfirmed     ReviewStatus = "CONFIRMED"
	ReviewRejected      ReviewStatus = "REJECTED"
	ReviewManualUpdated ReviewStatus = "MANUAL_UPDATED"
	ReviewMissingData   ReviewStatus = "MISSING_DATA"
	ReviewPending       ReviewStatus = "PENDING"

	// ReviewNotExtracted only appears in the review table, for documents
	// that have no completed extraction. It is never stored.
	ReviewNotExtracted ReviewStatus = "NOT_EXTRACTED"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewConfirmed, ReviewRejected, ReviewManualUpdated, ReviewMissingData, ReviewPending:
		return true
	}
	return false
}

type FieldType string

const (
	FieldText    FieldType = "TEXT"
	FieldDate    FieldType = "DATE"
	FieldNumber  FieldType = "NUMBER"
	FieldBoolean FieldType = "BOOLEAN"
	FieldList    FieldType = "LIST"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldDate, FieldNumber, FieldBoolean, FieldList:
		return true
	}
	return false
}
