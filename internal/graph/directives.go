package graph

import (
	"context"

	"aurelia-be/internal/utils"

	"github.com/vektah/gqlparser/v2/ast"
)

// checkAuth enforces @auth on a field. No role means any signed-in user.
func checkAuth(ctx context.Context, d *ast.Directive) error {
	if d == nil {
		return nil
	}

	if _, ok := utils.GetUserIDFromContext(ctx); !ok {
		return errUnauthenticated
	}

	required := utils.RoleUser
	if arg := d.Arguments.ForName("role"); arg != nil && arg.Value != nil && arg.Value.Raw != "" {
		required = arg.Value.Raw
	}
	if required == utils.RoleAdmin && !utils.IsAdmin(ctx) {
		return errAdminOnly
	}
	return nil
}
