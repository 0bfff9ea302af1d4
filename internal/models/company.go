package models

// Company is the tenant that owns suppliers, products and orders.
type Company struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// DefaultCompany is the company every fresh workspace starts with.
func DefaultCompany() Company {
	return Company{ID: 1, Name: "Default Company"}
}
