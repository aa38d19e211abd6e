package model

type ActorRole string

const (
	ActorRoleAdmin     ActorRole = "admin"
	ActorRoleRecruiter ActorRole = "recruiter"
	ActorRoleStudent   ActorRole = "student"
	ActorRoleSystem    ActorRole = "system"
)

// Actor identifies who requested an operation. It is passed explicitly into
// every core operation; the core never reads ambient session state.
type Actor struct {
	ID   int64     `json:"id"`
	Role ActorRole `json:"role"`
}
