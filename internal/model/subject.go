package model

// Subject represents an academic subject.
type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"subjectName"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name string `json:"subjectName" binding:"required,max=255"`
}
