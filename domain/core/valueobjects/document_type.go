package valueobjects

import "fmt"

// DocumentType classifies a trial document.
type DocumentType string

const (
	DocTypeProtocol    DocumentType = "PROTOCOL"
	DocTypeICF         DocumentType = "ICF"
	DocTypeAmendment   DocumentType = "AMENDMENT"
	DocTypeSAEReport   DocumentType = "SAE_REPORT"
	DocTypeAuditReport DocumentType = "AUDIT_REPORT"
)

// DocumentTypes lists every document type in display order.
var DocumentTypes = []DocumentType{DocTypeProtocol, DocTypeICF, DocTypeAmendment, DocTypeSAEReport, DocTypeAuditReport}

// ParseDocumentType validates a document type name.
func ParseDocumentType(s string) (DocumentType, error) {
	for _, t := range DocumentTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", s)
}
