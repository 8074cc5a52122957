package model

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the verified caller of a request, as supplied by the authentication layer.
type Identity struct {
	UserID   string
	Username string
	Role     Role
}

func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// UserRef is a populated reference to a user: only the selected columns are filled.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// FormRef is a populated reference to a form.
type FormRef struct {
	ID          string        `json:"id"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Fields      []FieldSchema `json:"fields,omitempty"`
}

type Form struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	AssignedTo  UserRef       `json:"assignedTo"`
	Fields      []FieldSchema `json:"fields"`
	CreatedBy   UserRef       `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	IsActive    bool          `json:"isActive"`
}

// FormInput is the body of a form creation request.
type FormInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	AssignedTo  string        `json:"assignedTo"`
	Fields      []FieldSchema `json:"fields"`
	IsActive    *bool         `json:"isActive"`
}

// FormPatch is the body of a form edit request; nil members are left untouched.
type FormPatch struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	AssignedTo  *string       `json:"assignedTo"`
	Fields      []FieldSchema `json:"fields"`
	IsActive    *bool         `json:"isActive"`
}

type Response struct {
	ID          string    `json:"id"`
	Form        FormRef   `json:"formId"`
	User        UserRef   `json:"userId"`
	Responses   []Answer  `json:"responses"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Submission is the body of a submit request.
type Submission struct {
	FormID    string      `json:"formId"`
	Responses []Candidate `json:"responses"`
}

type UserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *Role   `json:"role"`
}

type Stats struct {
	TotalUsers     int `json:"totalUsers"`
	TotalForms     int `json:"totalForms"`
	TotalResponses int `json:"totalResponses"`
	ActiveForms    int `json:"activeForms"`
}

type Dashboard struct {
	Stats           Stats      `json:"stats"`
	RecentResponses []Response `json:"recentResponses"`
}
