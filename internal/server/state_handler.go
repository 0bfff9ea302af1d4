package server

import (
	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/ordering"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

// StateResponse is the whole working state in one payload.
type StateResponse struct {
	Companies         []models.Company  `json:"companies"`
	SelectedCompanyID int64             `json:"selectedCompanyId"`
	Suppliers         []models.Supplier `json:"suppliers"`
	Products          []models.Product  `json:"products"`
	OrderHistory      []models.Order    `json:"orderHistory"`
	Cart              ordering.CartView `json:"cart"`
	HasPendingImport  bool              `json:"hasPendingImport"`
}

// GET /api/state
func stateHandler(reg *workspace.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var resp StateResponse
		err = reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			st := s.State
			resp = StateResponse{
				Companies:         append([]models.Company{}, st.Companies...),
				SelectedCompanyID: st.SelectedCompanyID,
				Suppliers:         st.CompanySuppliers(st.SelectedCompanyID),
				Products:          st.CompanyProducts(st.SelectedCompanyID, 0),
				OrderHistory:      st.CompanyOrders(st.SelectedCompanyID),
				Cart:              ordering.NewCartView(s),
				HasPendingImport:  s.Pending != nil,
			}
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}
