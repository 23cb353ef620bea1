package signup

import (
	"time"

	"github.com/trezcool/edulearn/core"
)

// Request statuses. pending is the only non-terminal state:
// pending --approve--> approved, pending --reject--> rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request is a prospective user's signup request, kept forever as an audit trail.
type Request struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	CollegeName string    `json:"college_name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (r *Request) IsPending() bool { return r.Status == StatusPending }

// NewRequest contains information needed to submit a signup request.
type NewRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name" validate:"required"`
	Role        string `json:"role" validate:"required,signuprole"`
	CollegeName string `json:"college_name" validate:"required"`
}

func (nr *NewRequest) Validate() error {
	nr.Email = core.CleanString(nr.Email, true /* lower */)
	nr.Name = core.CleanString(nr.Name)
	nr.Role = core.CleanString(nr.Role, true /* lower */)
	nr.CollegeName = core.CleanString(nr.CollegeName)
	return core.Validate.Struct(nr)
}
