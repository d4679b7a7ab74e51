package domain

import "github.com/google/uuid"

// TopicScope is the curriculum placement of a topic, mirrored from the
// read-only content store. Every chunk indexed for the topic inherits it.
type TopicScope struct {
	TopicID       uuid.UUID
	TopicName     string
	SubjectID     uuid.UUID
	CourseID      uuid.UUID
	DepartmentID  uuid.UUID
	InstitutionID uuid.UUID
	Position      int
}
