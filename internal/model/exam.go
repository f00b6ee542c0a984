package model

// ExamNameSuffix is appended to the owning subject's name to form an exam name.
const ExamNameSuffix = " EXAM"

// Exam belongs to exactly one subject for its whole lifetime.
type Exam struct {
	ID        int64  `json:"id"`
	Name      string `json:"examName"`
	SubjectID int64  `json:"subjectId"`
}

// NewExam builds an unsaved exam owned by subject.
func NewExam(subject *Subject) *Exam {
	return &Exam{
		Name:      subject.Name + ExamNameSuffix,
		SubjectID: subject.ID,
	}
}
