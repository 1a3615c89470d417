package organization

type UnitRequest struct {
	Name        string  `json:"name" binding:"required,max=150"`
	Code        string  `json:"code" binding:"max=50"`
	Description string  `json:"description" binding:"max=500"`
	ParentID    *string `json:"parent_id" binding:"omitempty,uuid"`
}

type UnitResponse struct {
	ID          string  `json:"id"`
	CompanyID   string  `json:"company_id"`
	Kind        string  `json:"kind"`
	ParentID    *string `json:"parent_id,omitempty"`
	Name        string  `json:"name"`
	Code        string  `json:"code,omitempty"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}
