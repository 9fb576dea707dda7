package models

import (
	"encoding/json"
	"time"
)

// Kind identifies one of the resource collections.
type Kind string

const (
	KindPaper    Kind = "paper"
	KindNote     Kind = "note"
	KindSyllabus Kind = "syllabus"
)

// Kinds lists every resource kind in routing order.
var Kinds = []Kind{KindPaper, KindNote, KindSyllabus}

// ParseKind validates a resource type coming from a request.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindPaper, KindNote, KindSyllabus:
		return Kind(s), true
	}
	return "", false
}

// ParsePath maps a URL segment such as "papers" back to its kind.
func ParsePath(s string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Path() == s {
			return k, true
		}
	}
	return "", false
}

// Path is the URL segment and storage prefix of the kind.
func (k Kind) Path() string {
	switch k {
	case KindPaper:
		return "papers"
	case KindNote:
		return "notes"
	default:
		return "syllabus"
	}
}

// Collection is the document collection holding the kind.
func (k Kind) Collection() string {
	return k.Path()
}

// Title is the capitalized name used in messages.
func (k Kind) Title() string {
	switch k {
	case KindPaper:
		return "Paper"
	case KindNote:
		return "Note"
	default:
		return "Syllabus"
	}
}

// Resource is a paper, note or syllabus. All kinds share the same shape;
// fields that do not apply to a kind are left empty.
type Resource struct {
	ID            string     `bson:"_id" json:"id"`
	Kind          Kind       `bson:"kind" json:"kind"`
	Title         string     `bson:"title" json:"title"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
	Abstract      string     `bson:"abstract,omitempty" json:"abstract,omitempty"`
	Content       string     `bson:"content,omitempty" json:"content,omitempty"`
	Authors       []string   `bson:"authors" json:"authors"`
	Tags          []string   `bson:"tags" json:"tags"`
	CourseCode    string     `bson:"course_code,omitempty" json:"course_code,omitempty"`
	Branch        string     `bson:"branch,omitempty" json:"branch,omitempty"`
	Year          string     `bson:"year,omitempty" json:"year,omitempty"`
	File          StoredFile `bson:"file" json:"file"`
	UploadedBy    string     `bson:"uploaded_by" json:"uploaded_by"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`
	DownloadCount int64      `bson:"download_count" json:"download_count"`
}

// FileURL is the API path that downloads the resource file.
func (r *Resource) FileURL() string {
	return "/api/" + r.Kind.Path() + "/" + r.ID + "/download"
}

// MarshalJSON adds the computed file_url to the stored fields.
func (r Resource) MarshalJSON() ([]byte, error) {
	type resource Resource
	return json.Marshal(struct {
		resource
		FileURL string `json:"file_url"`
	}{resource(r), r.FileURL()})
}
