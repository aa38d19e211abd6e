package roster

import "context"

// Person is the denormalized display view of a participant owned by the
// identity service. The scheduling core never mutates it.
type Person struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"` // company or university
}

// Service is the read-only identity/roster collaborator.
type Service interface {
	Student(ctx context.Context, id int64) (*Person, error)
	Recruiter(ctx context.Context, id int64) (*Person, error)

	// OnWaitlist reports whether the student is still on the unassigned
	// roster, i.e. eligible for admin assignment.
	OnWaitlist(ctx context.Context, studentID int64) (bool, error)
}
