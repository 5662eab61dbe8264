package gate

import "context"

// Policy adds resource-level rules (typically ownership) on top of role permissions.
// For list/create the resource is nil.
type Policy[U any] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}
