package domain

import (
	"itad_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// Role is the account role carried by an authenticated actor.
type Role string

const (
	RoleDeveloper     Role = "Developer"
	RoleAdministrator Role = "Administrator"
	RoleManager       Role = "Manager"
	RoleStaff         Role = "Staff"
	RoleDriver        Role = "Driver"
	RoleClient        Role = "Client"
)

// ParseRole converts a token claim into a Role.
func ParseRole(value string) (Role, bool) {
	switch r := Role(value); r {
	case RoleDeveloper, RoleAdministrator, RoleManager, RoleStaff, RoleDriver, RoleClient:
		return r, true
	}
	return "", false
}

// IsStaff reports whether r belongs to the company rather than a client.
func (r Role) IsStaff() bool {
	return r != RoleClient && r != ""
}

// Capability names one permission evaluated by the lifecycle services.
type Capability string

const (
	CanProvideQuote   Capability = "provide_quote"
	CanCreateJob      Capability = "create_job"
	CanSchedule       Capability = "schedule"
	CanMarkCollected  Capability = "mark_collected"
	CanMarkReceived   Capability = "mark_received"
	CanProcess        Capability = "process"
	CanComplete       Capability = "complete"
	CanCancel         Capability = "cancel"
	CanEditJob        Capability = "edit_job"
	CanManageItems    Capability = "manage_items"
	CanWriteNotes     Capability = "write_notes"
	CanViewAllJobs    Capability = "view_all_jobs"
	CanManageDocument Capability = "manage_documents"
	CanRequestQuote   Capability = "request_quote"
)

var (
	office   = []Role{RoleDeveloper, RoleAdministrator, RoleManager, RoleStaff}
	allStaff = []Role{RoleDeveloper, RoleAdministrator, RoleManager, RoleStaff, RoleDriver}
)

// capabilities is the single role to permission table.
var capabilities = map[Capability][]Role{
	CanProvideQuote:   office,
	CanCreateJob:      office,
	CanSchedule:       office,
	CanMarkCollected:  allStaff,
	CanMarkReceived:   office,
	CanProcess:        office,
	CanComplete:       office,
	CanCancel:         {RoleDeveloper, RoleAdministrator, RoleManager},
	CanEditJob:        office,
	CanManageItems:    allStaff,
	CanWriteNotes:     allStaff,
	CanViewAllJobs:    allStaff,
	CanManageDocument: allStaff,
	CanRequestQuote:   {RoleClient},
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID       uuid.UUID
	Role     Role
	ClientID *uuid.UUID
}

// HasRole reports whether the actor holds one of roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Can reports whether the actor's role grants c.
func (a Actor) Can(c Capability) bool {
	return a.HasRole(capabilities[c]...)
}

// IsOwner reports whether the actor is the client that owns job.
func (a Actor) IsOwner(job *Job) bool {
	return a.Role == RoleClient && a.ClientID != nil && job != nil && *a.ClientID == job.ClientID
}

// Require returns Forbidden unless the actor has c.
func (a Actor) Require(c Capability) error {
	if !a.Can(c) {
		return apperr.Forbidden("actor is not permitted to " + string(c))
	}
	return nil
}

// RequireOwner returns Forbidden unless the actor owns job.
func (a Actor) RequireOwner(job *Job) error {
	if !a.IsOwner(job) {
		return apperr.Forbidden("only the owning client may perform this action")
	}
	return nil
}

// RequireOwnerOr admits the owning client or any role granted c.
func (a Actor) RequireOwnerOr(job *Job, c Capability) error {
	if a.IsOwner(job) || a.Can(c) {
		return nil
	}
	return apperr.Forbidden("actor is not permitted to access this job")
}
