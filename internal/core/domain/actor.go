package domain

// Role represents a workflow role in the system
type Role string

const (
	RoleMaker        Role = "MAKER"
	RoleVerifier     Role = "VERIFIER"
	RoleAuthorizer   Role = "AUTHORIZER"
	RoleWarehouseman Role = "WAREHOUSEMAN"
	RoleClerk        Role = "CLERK"
	RoleAdmin        Role = "ADMIN"
)

// SystemActorName is attributed as verifier and approver on the streamlined
// (auto-approved) path for Basic requests.
const SystemActorName = "system"

// Actor is the identity performing a command. It is always passed explicitly
// into commands; the engine never reads ambient session state.
type Actor struct {
	ID    uint
	Name  string
	Roles []Role
}

// SystemActor returns the synthetic actor used for auto-traversed steps.
// It passes gates on its roles like any other actor; the name itself
// grants nothing.
func SystemActor() Actor {
	return Actor{ID: 0, Name: SystemActorName, Roles: []Role{RoleVerifier, RoleAuthorizer}}
}

// HasRole reports whether the actor holds any of the given roles.
// ADMIN passes every role gate.
func (a Actor) HasRole(roles ...Role) bool {
	for _, have := range a.Roles {
		if have == RoleAdmin {
			return true
		}
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
