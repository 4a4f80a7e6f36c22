package auth

import "context"

type Role string

const (
	RoleOwner      Role = "owner"
	RoleResident   Role = "resident"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Actor is the authenticated caller. It is passed explicitly into every
// service operation.
type Actor struct {
	UserID     string
	Role       Role
	BuildingID string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

// CanAdminister reports whether the actor manages the given building.
// Super admins manage every building.
func (a Actor) CanAdminister(buildingID string) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.Role == RoleAdmin && a.BuildingID == buildingID
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
