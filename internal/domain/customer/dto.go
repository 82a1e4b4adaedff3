// internal/domain/customer/dto.go
package customer

type CreateCustomerRequest struct {
	FullName    string   `json:"full_name" binding:"required"`
	PhoneNumber string   `json:"phone_number" binding:"required"`
	Email       string   `json:"email" binding:"omitempty,email"`
	Notes       string   `json:"notes"`
	Tags        []string `json:"tags"`
}

type ListFilters struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type ListResponse struct {
	Customers []Customer `json:"customers"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}
