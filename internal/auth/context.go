package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Role names a capability granted to an authenticated caller
type Role string

const (
	RoleOwner      Role = "owner"
	RoleStaff      Role = "staff"
	RoleAPIService Role = "api_service"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	AccountID   uuid.UUID
	Roles       []Role
}

type contextKey string

const userContextKey contextKey = "userContext"
const accountScopeKey contextKey = "accountScope"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// CanManagePlans reports whether the user may create and edit plans
func (u *UserContext) CanManagePlans() bool {
	return u.HasAnyRole(RoleOwner, RoleAPIService)
}

// RolesAsStrings returns roles as a slice of strings
func (u *UserContext) RolesAsStrings() []string {
	result := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		result[i] = string(role)
	}
	return result
}

// GetDisplayNameInitials returns initials from the display name (e.g., "Ana Lima" -> "AL")
func (u *UserContext) GetDisplayNameInitials() string {
	parts := strings.Fields(u.DisplayName)
	initials := ""
	for _, part := range parts {
		initials += strings.ToUpper(string(part[0]))
	}
	return initials
}

// AccountScope is the owning account every query of a request is restricted to
type AccountScope struct {
	AccountID uuid.UUID
}

// WithAccountScope adds an explicit account scope to the context
func WithAccountScope(ctx context.Context, scope *AccountScope) context.Context {
	return context.WithValue(ctx, accountScopeKey, scope)
}

// AccountScopeFromContext extracts the account scope from the context
func AccountScopeFromContext(ctx context.Context) (*AccountScope, bool) {
	scope, ok := ctx.Value(accountScopeKey).(*AccountScope)
	return scope, ok
}

// GetEffectiveAccountID returns the account queries should be restricted to.
// It returns nil outside a request (background jobs), where no restriction applies.
func GetEffectiveAccountID(ctx context.Context) *uuid.UUID {
	if scope, ok := AccountScopeFromContext(ctx); ok && scope != nil {
		return &scope.AccountID
	}
	if userCtx, ok := FromContext(ctx); ok && userCtx.AccountID != uuid.Nil {
		id := userCtx.AccountID
		return &id
	}
	return nil
}
