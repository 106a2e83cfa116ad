package domain

// EnforceRequest is the access check shared between the rbac service and the
// http middleware without coupling the two packages.
type EnforceRequest struct {
	UserID   string `json:"user_id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
