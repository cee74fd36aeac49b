package identity

// Identity is the authenticated principal attached to a connection for its
// lifetime. It is resolved once at connect time from the bearer token and
// never re-validated per frame.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// Anonymous reports whether the identity is absent or empty. The connection
// gate attaches a nil identity on verification failure and leaves the
// accept/reject decision to the session layer.
func Anonymous(id *Identity) bool {
	return id == nil || id.UserID == ""
}
