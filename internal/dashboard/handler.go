// Package dashboard serves company level statistics and chart series.
package dashboard

import (
	"fmt"

	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/workspace"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard?company_id=2
// Without company_id the selected company is used.
func DashboardHandler(reg *workspace.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var companyID int64
		if s := c.Query("company_id"); s != "" {
			if _, err := fmt.Sscan(s, &companyID); err != nil || companyID <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid company_id")
			}
		}

		var stats Stats
		err = reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			if companyID == 0 {
				companyID = s.State.SelectedCompanyID
			}
			if _, ok := s.State.Company(companyID); !ok {
				return fiber.NewError(fiber.StatusNotFound, "Company not found")
			}
			stats = Compute(s.State, companyID)
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}
