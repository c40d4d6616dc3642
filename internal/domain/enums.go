package domain

type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	return r == RoleClient || r == RoleAdmin
}

// ToRole parses a stored role. Anything unrecognised resolves to the
// least-privileged role.
func ToRole(role string) Role {
	if Role(role) == RoleAdmin {
		return RoleAdmin
	}
	return RoleClient
}

type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in-progress"
	AssignmentStatusRevision   AssignmentStatus = "revision"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusApproved   AssignmentStatus = "approved"
)

// AssignmentStatuses lists every status in display order.
var AssignmentStatuses = []AssignmentStatus{
	AssignmentStatusPending,
	AssignmentStatusInProgress,
	AssignmentStatusRevision,
	AssignmentStatusCompleted,
	AssignmentStatusApproved,
}

func (s AssignmentStatus) String() string {
	return string(s)
}

func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentStatusPending, AssignmentStatusInProgress,
		AssignmentStatusRevision, AssignmentStatusCompleted, AssignmentStatusApproved:
		return true
	default:
		return false
	}
}

type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusGraded    SubmissionStatus = "graded"
	SubmissionStatusApproved  SubmissionStatus = "approved"
	SubmissionStatusRejected  SubmissionStatus = "rejected"
)

var SubmissionStatuses = []SubmissionStatus{
	SubmissionStatusSubmitted,
	SubmissionStatusGraded,
	SubmissionStatusApproved,
	SubmissionStatusRejected,
}

func (s SubmissionStatus) String() string {
	return string(s)
}

func (s SubmissionStatus) IsValid() bool {
	switch s {
	case SubmissionStatusSubmitted, SubmissionStatusGraded,
		SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	default:
		return false
	}
}

// Kind names a backend collection.
type Kind string

const (
	KindAssignments Kind = "assignments"
	KindSubmissions Kind = "submissions"
	KindUsers       Kind = "users"
	KindMessages    Kind = "messages"
)

func (k Kind) String() string {
	return string(k)
}
