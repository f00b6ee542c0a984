package model

// Student represents an enrolled learner.
// Enrolled subjects and exams are loaded through join queries, never stored on the row.
type Student struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	EnrolledSubjects []Subject `json:"enrolledSubjects"`
	EnrolledExams    []Exam    `json:"enrolledExams"`
}

// Normalize replaces nil association slices with empty ones so they encode as [].
func (s *Student) Normalize() {
	if s.EnrolledSubjects == nil {
		s.EnrolledSubjects = []Subject{}
	}
	if s.EnrolledExams == nil {
		s.EnrolledExams = []Exam{}
	}
}

// CreateStudentRequest is the payload for creating a student.
type CreateStudentRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}
