package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSecureFilename(t *testing.T) {
	tests := map[string]string{
		"resume.pdf":                "resume.pdf",
		"My Resume (final).PDF":     "My_Resume_final.PDF",
		"../../etc/passwd":          "passwd",
		`C:\Users\asha\cv.docx`:     "cv.docx",
		"  spaced   out  name.doc ": "spaced_out_name.doc",
		"résumé.pdf":                "rsum.pdf",
		".hidden":                   "hidden",
		"../..":                     "",
	}

	for in, want := range tests {
		assert.Equal(t, want, SecureFilename(in), in)
	}
}

func TestStampAndExt(t *testing.T) {
	at := time.Date(2024, 6, 1, 15, 4, 5, 0, time.FixedZone("IST", 5*3600+1800))
	assert.Equal(t, "20240601_093405", Stamp(at))

	assert.Equal(t, "pdf", Ext("CV.PDF"))
	assert.Equal(t, "docx", Ext("a.b.docx"))
	assert.Equal(t, "", Ext("noext"))
}
