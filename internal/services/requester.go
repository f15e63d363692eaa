package services

import "github.com/franciscosanchezn/gin-foodgram-api/internal/models"

// Requester identifies who performs an operation. It is passed explicitly to
// every service call that depends on identity; the zero value is anonymous.
type Requester struct {
	UserID uint
	Role   string
}

// Anonymous returns the requester used for unauthenticated calls
func Anonymous() Requester {
	return Requester{}
}

// AuthenticatedAs returns a regular user requester
func AuthenticatedAs(userID uint) Requester {
	return Requester{UserID: userID, Role: models.RoleUser}
}

func (r Requester) IsAnonymous() bool {
	return r.UserID == 0
}

func (r Requester) IsAdmin() bool {
	return !r.IsAnonymous() && r.Role == models.RoleAdmin
}
