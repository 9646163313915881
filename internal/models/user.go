package models

// Role is the platform role attached to an auth token
type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleCandidate || r == RoleInterviewer || r == RoleAdmin
}

// User is the public view of a platform user
type User struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email" yaml:"email"`
	Role  Role   `json:"role" yaml:"role"`
}

// Credentials is the body of POST /login
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// SignupRequest is the body of POST /signup
type SignupRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// AuthResponse is returned by POST /login
type AuthResponse struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}

// PublicStartRequest identifies an anonymous candidate for a shared assessment
type PublicStartRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AssessmentID string `json:"assessment_id"`
}

// PublicStartResponse is returned by POST /api/public/start
type PublicStartResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SetPasswordRequest is the body of POST /auth/set-password
type SetPasswordRequest struct {
	Password string `json:"password"`
}
