package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Resume fields produced by extraction.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldCurrentCompany  = "current_company"
	FieldDesignation     = "designation"
	FieldSkills          = "skills"
	FieldExperienceYears = "experience_years"
	FieldEducation       = "education"
	FieldLocation        = "location"
)

// ResumeFields lists every extracted field in prompt order.
func ResumeFields() []string {
	return []string{
		FieldName, FieldEmail, FieldPhone, FieldCurrentCompany, FieldDesignation,
		FieldSkills, FieldExperienceYears, FieldEducation, FieldLocation,
	}
}

// ParsedResume is the confidence-annotated extraction result stored in the
// parsed_data column.
type ParsedResume struct {
	Fields     map[string]any     `json:"parsed_data" bson:"parsed_data"`
	Confidence map[string]float64 `json:"confidence" bson:"confidence"`
	Error      string             `json:"error,omitempty" bson:"error,omitempty"`
}

func (p ParsedResume) MarshalJSON() ([]byte, error) {
	type plain ParsedResume
	if p.Fields == nil {
		p.Fields = map[string]any{}
	}
	if p.Confidence == nil {
		p.Confidence = map[string]float64{}
	}
	return json.Marshal(plain(p))
}

// String returns a field rendered as text, or "" when absent.
func (p ParsedResume) String(field string) string {
	v, ok := p.Fields[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

// Skills returns the skills field as a list, splitting comma separated text.
func (p ParsedResume) Skills() []string {
	var raw []string
	switch t := p.Fields[FieldSkills].(type) {
	case []string:
		raw = t
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(t, ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RequestLog is the append-only document request history.
type RequestLog []DocumentRequest

func (l RequestLog) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]DocumentRequest(l))
}

type Candidate struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string `gorm:"column:name;type:text;not null" json:"name"`
	Email       string `gorm:"column:email;type:text;not null;index" json:"email"`
	CurrCompany string `gorm:"column:curr_company;type:text" json:"curr_company"`

	ResumeFilename string `gorm:"column:resume_filename;type:text" json:"resume_filename"`
	ResumePath     string `gorm:"column:resume_path;type:text" json:"resume_path"`

	ParsedData       datatypes.JSONType[ParsedResume] `gorm:"column:parsed_data;type:jsonb" json:"parsed_data"`
	Documents        datatypes.JSONType[Documents]    `gorm:"column:documents;type:jsonb" json:"documents"`
	DocumentRequests datatypes.JSONType[RequestLog]   `gorm:"column:document_requests;type:jsonb" json:"document_requests"`

	// Skills mirrors parsed_data.skills for list filtering.
	Skills pq.StringArray `gorm:"column:skills;type:text[]" json:"-"`

	Status Status `gorm:"column:status;type:text;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Candidate) TableName() string { return "candidates" }

// NewCandidate returns a freshly uploaded candidate in StatusParsingResume.
func NewCandidate(id, name, email, currCompany, resumeFilename, resumePath string, now time.Time) *Candidate {
	now = now.UTC()
	return &Candidate{
		ID:               id,
		Name:             name,
		Email:            email,
		CurrCompany:      currCompany,
		ResumeFilename:   resumeFilename,
		ResumePath:       resumePath,
		ParsedData:       datatypes.NewJSONType(ParsedResume{}),
		Documents:        datatypes.NewJSONType(Documents{}),
		DocumentRequests: datatypes.NewJSONType(RequestLog{}),
		Status:           StatusParsingResume,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (c *Candidate) Parsed() ParsedResume { return c.ParsedData.Data() }

func (c *Candidate) SetParsed(p ParsedResume) {
	c.ParsedData = datatypes.NewJSONType(p)
	c.SyncSkills()
}

func (c *Candidate) Docs() Documents { return c.Documents.Data() }

func (c *Candidate) SetDoc(t DocumentType, doc *Document) {
	d := c.Documents.Data()
	d.Set(t, doc)
	c.Documents = datatypes.NewJSONType(d)
}

func (c *Candidate) Requests() RequestLog { return c.DocumentRequests.Data() }

func (c *Candidate) AppendRequest(r DocumentRequest) {
	log := c.DocumentRequests.Data()
	next := make(RequestLog, 0, len(log)+1)
	next = append(next, log...)
	next = append(next, r)
	c.DocumentRequests = datatypes.NewJSONType(next)
}

// SyncSkills copies parsed skills into the Skills column.
func (c *Candidate) SyncSkills() {
	c.Skills = pq.StringArray(c.Parsed().Skills())
}

func (c *Candidate) BeforeSave(*gorm.DB) error {
	c.SyncSkills()
	return nil
}

// KeepIdentity restores the fields fixed at upload time from orig.
func (c *Candidate) KeepIdentity(orig *Candidate) {
	c.ID = orig.ID
	c.Name = orig.Name
	c.Email = orig.Email
	c.CurrCompany = orig.CurrCompany
	c.ResumeFilename = orig.ResumeFilename
	c.ResumePath = orig.ResumePath
	c.CreatedAt = orig.CreatedAt
}

// Clone returns a deep copy.
func (c *Candidate) Clone() *Candidate {
	out := *c
	out.ParsedData = datatypes.NewJSONType(cloneParsed(c.Parsed()))
	out.Documents = datatypes.NewJSONType(cloneDocs(c.Docs()))
	out.DocumentRequests = datatypes.NewJSONType(append(RequestLog{}, c.Requests()...))
	out.Skills = append(pq.StringArray(nil), c.Skills...)
	return &out
}

func cloneParsed(p ParsedResume) ParsedResume {
	b, err := json.Marshal(p)
	if err != nil {
		return ParsedResume{Error: p.Error}
	}
	var out ParsedResume
	if err := json.Unmarshal(b, &out); err != nil {
		return ParsedResume{Error: p.Error}
	}
	return out
}

func cloneDocs(d Documents) Documents {
	var out Documents
	if d.PAN != nil {
		v := *d.PAN
		out.PAN = &v
	}
	if d.Aadhaar != nil {
		v := *d.Aadhaar
		out.Aadhaar = &v
	}
	return out
}
