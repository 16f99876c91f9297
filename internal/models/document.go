package models

import "time"

// DocumentType names an identity document slot.
type DocumentType string

const (
	DocumentPAN     DocumentType = "pan"
	DocumentAadhaar DocumentType = "aadhaar"
)

// DocumentTypes lists the slots in request order.
func DocumentTypes() []DocumentType {
	return []DocumentType{DocumentPAN, DocumentAadhaar}
}

func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(s) {
	case DocumentPAN:
		return DocumentPAN, true
	case DocumentAadhaar:
		return DocumentAadhaar, true
	}
	return "", false
}

type Document struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Documents always serialises with exactly the pan and aadhaar keys.
type Documents struct {
	PAN     *Document `json:"pan"`
	Aadhaar *Document `json:"aadhaar"`
}

func (d Documents) Get(t DocumentType) *Document {
	switch t {
	case DocumentPAN:
		return d.PAN
	case DocumentAadhaar:
		return d.Aadhaar
	}
	return nil
}

// Set fills one slot. Unknown types are ignored.
func (d *Documents) Set(t DocumentType, doc *Document) {
	switch t {
	case DocumentPAN:
		d.PAN = doc
	case DocumentAadhaar:
		d.Aadhaar = doc
	}
}

func (d Documents) Complete() bool {
	return d.PAN != nil && d.Aadhaar != nil
}

// Missing returns the empty slots in request order.
func (d Documents) Missing() []DocumentType {
	var out []DocumentType
	for _, t := range DocumentTypes() {
		if d.Get(t) == nil {
			out = append(out, t)
		}
	}
	return out
}

const RequestStatusSent = "sent"

// DocumentRequest is one entry of the append-only request log.
type DocumentRequest struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
}
