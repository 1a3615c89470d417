package domain

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID    string
	CompanyID string
}

func (a Actor) Can(resource, action string) EnforceRequest {
	return EnforceRequest{
		UserID:    a.UserID,
		CompanyID: a.CompanyID,
		Resource:  resource,
		Action:    action,
	}
}
