package companies

import (
	"errors"
	"fmt"
	"strings"

	"supplysync-backend/internal/audit"
	"supplysync-backend/internal/auth"
	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
	"supplysync-backend/internal/workspace"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	reg      *workspace.Registry
	audit    *audit.Recorder
	validate *validator.Validate
}

func NewHandler(reg *workspace.Registry, rec *audit.Recorder) *Handler {
	return &Handler{reg: reg, audit: rec, validate: validator.New()}
}

type CreateCompanyRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

type UpdateCompanyRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Address *string `json:"address"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	Website *string `json:"website"`
}

type CompanyResponse struct {
	models.Company
	Selected bool `json:"selected"`
}

type ListResponse struct {
	Companies         []CompanyResponse `json:"companies"`
	SelectedCompanyID int64             `json:"selectedCompanyId"`
}

func listResponse(st *state.State) ListResponse {
	resp := ListResponse{
		Companies:         make([]CompanyResponse, 0, len(st.Companies)),
		SelectedCompanyID: st.SelectedCompanyID,
	}
	for _, c := range st.Companies {
		resp.Companies = append(resp.Companies, CompanyResponse{Company: c, Selected: c.ID == st.SelectedCompanyID})
	}
	return resp
}

func parseID(c *fiber.Ctx) (int64, error) {
	var id int64
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid company id")
	}
	return id, nil
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		switch errs[0].Tag() {
		case "required", "min":
			return fiber.NewError(fiber.StatusBadRequest, "Company name is required.")
		case "email":
			return fiber.NewError(fiber.StatusBadRequest, "Please enter a valid email address")
		}
	}
	return fiber.NewError(fiber.StatusBadRequest, "Invalid company data")
}

// GET /api/companies
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var resp ListResponse
		err = h.reg.View(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			resp = listResponse(s.State)
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// POST /api/companies
func (h *Handler) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CreateCompanyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Email = strings.TrimSpace(body.Email)
		if err := h.validate.Struct(body); err != nil {
			return validationError(err)
		}

		var created models.Company
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			id := s.State.AddCompany(models.Company{
				Name:    body.Name,
				Address: strings.TrimSpace(body.Address),
				Email:   body.Email,
				Phone:   strings.TrimSpace(body.Phone),
				Website: strings.TrimSpace(body.Website),
			})
			// the new company is selected
			s.ResetScope()
			created, _ = s.State.Company(id)
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "company",
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Company created: %s", created.Name),
			After:       created,
		})
		return c.Status(fiber.StatusCreated).JSON(CompanyResponse{Company: created, Selected: true})
	}
}

// PUT /api/companies/:id
func (h *Handler) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var body UpdateCompanyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Name != nil {
			v := strings.TrimSpace(*body.Name)
			body.Name = &v
		}
		if err := h.validate.Struct(body); err != nil {
			return validationError(err)
		}

		var before, after models.Company
		var selected bool
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			existing, ok := s.State.Company(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Company not found")
			}
			before = existing
			if body.Name != nil {
				existing.Name = *body.Name
			}
			if body.Address != nil {
				existing.Address = strings.TrimSpace(*body.Address)
			}
			if body.Email != nil {
				existing.Email = strings.TrimSpace(*body.Email)
			}
			if body.Phone != nil {
				existing.Phone = strings.TrimSpace(*body.Phone)
			}
			if body.Website != nil {
				existing.Website = strings.TrimSpace(*body.Website)
			}
			s.State.UpdateCompany(existing)
			after = existing
			selected = s.State.SelectedCompanyID == id
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "company",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Company updated: %s", after.Name),
			Before:      before,
			After:       after,
		})
		return c.JSON(CompanyResponse{Company: after, Selected: selected})
	}
}

// DELETE /api/companies/:id
func (h *Handler) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var deleted models.Company
		var resp ListResponse
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			existing, ok := s.State.Company(id)
			if !ok {
				return fiber.NewError(fiber.StatusNotFound, "Company not found")
			}
			wasSelected := s.State.SelectedCompanyID == id
			if err := s.State.DeleteCompany(id); err != nil {
				if errors.Is(err, state.ErrLastCompany) {
					return fiber.NewError(fiber.StatusConflict, "You cannot delete the only company.")
				}
				return err
			}
			if wasSelected {
				s.ResetScope()
			}
			deleted = existing
			resp = listResponse(s.State)
			return nil
		})
		if err != nil {
			return err
		}

		h.audit.Record(c, audit.LogOptions{
			EntityType:  "company",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Company deleted with its suppliers, products and orders: %s", deleted.Name),
			Before:      deleted,
		})
		return c.JSON(resp)
	}
}

// POST /api/companies/:id/select
func (h *Handler) Select() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var resp ListResponse
		err = h.reg.Do(c.UserContext(), user.UserID, func(s *workspace.Session) error {
			if _, ok := s.State.Company(id); !ok {
				return fiber.NewError(fiber.StatusNotFound, "Company not found")
			}
			s.State.SelectCompany(id)
			s.ResetScope()
			resp = listResponse(s.State)
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}
