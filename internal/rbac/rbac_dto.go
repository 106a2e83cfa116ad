package rbac

import "go-reqflow/internal/domain"

type EnforceRequest = domain.EnforceRequest

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}
