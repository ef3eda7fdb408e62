// Package model defines the core data types shared across the harvesting
// and summarization pipeline.
package model

// DocType is the coarse category assigned to a disclosure document by
// title classification.
type DocType string

const (
	DocTypeTanshin      DocType = "tanshin"      // financial results (決算短信)
	DocTypePresentation DocType = "presentation" // briefing / supplementary materials
	DocTypeDividend     DocType = "dividend"
	DocTypeOther        DocType = "other"
)

// Document is one row extracted from a TDnet listing page. It is immutable
// after extraction except for StorageKey, which is set post-upload.
type Document struct {
	Time        string  `json:"time"` // HH:MM as published on the listing page
	Code        string  `json:"code"`
	CompanyName string  `json:"company_name"`
	Title       string  `json:"title"`
	DocType     DocType `json:"doc_type"`
	PDFURL      string  `json:"pdf_url,omitempty"`
	StorageKey  string  `json:"storage_key,omitempty"`
}

// IssuerInfo holds the static per-issuer attributes from the reference
// table, keyed by normalized code. Read-only for the process lifetime.
type IssuerInfo struct {
	Code   string
	Name   string
	Sector string
	Size   string
}

// DocumentGroup is the set of one issuer's documents collected for a
// processing run. All documents in a group share the same normalized code.
type DocumentGroup struct {
	Code         string
	Name         string
	Sector       string
	Size         string
	Documents    []Document
	CombinedText string
	Summary      string
}

// TransferOutcome records the result of a single download+upload item.
// It exists only for counting and logging.
type TransferOutcome struct {
	Document Document
	Success  bool
	Message  string
}

// DateMetadata is the JSON sidecar written once per processed date.
type DateMetadata struct {
	RunID          string           `json:"run_id"`
	Date           string           `json:"date"`
	TotalDocuments int              `json:"total_documents"`
	DocumentTypes  map[string]int   `json:"document_types"`
	Companies      map[string]int   `json:"companies"`
	Documents      []DocumentRecord `json:"documents"`
}

// DocumentRecord is the per-document entry inside DateMetadata.
type DocumentRecord struct {
	Time        string  `json:"time"`
	Code        string  `json:"code"`
	CompanyName string  `json:"company_name"`
	Title       string  `json:"title"`
	DocType     DocType `json:"doc_type"`
	StorageKey  string  `json:"storage_key"`
}
