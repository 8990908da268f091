package tenancy

import "context"

type ctxKey string

const (
	orgKey   ctxKey = "carebook.org_id"
	staffKey ctxKey = "carebook.staff_id"
)

// WithOrgID stores the org id in context.
func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgKey, orgID)
}

// OrgIDFromContext extracts the org id if present.
func OrgIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, orgKey)
}

// WithStaffID stores the authenticated staff member id in context.
func WithStaffID(ctx context.Context, staffID string) context.Context {
	return context.WithValue(ctx, staffKey, staffID)
}

// StaffIDFromContext extracts the staff id set by the staff auth middleware.
func StaffIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, staffKey)
}

func stringValue(ctx context.Context, key ctxKey) (string, bool) {
	val := ctx.Value(key)
	if val == nil {
		return "", false
	}
	s, ok := val.(string)
	return s, ok && s != ""
}
