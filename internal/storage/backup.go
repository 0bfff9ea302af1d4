package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
)

// BackupVersion is written into every backup file.
const BackupVersion = "1.0"

// ErrInvalidBackup is returned for files missing the required sections.
var ErrInvalidBackup = errors.New("invalid backup file format")

// Backup is the full dump/restore file. Unlike the spreadsheet import it
// replaces the whole workspace.
type Backup struct {
	Version      string            `json:"version"`
	ExportDate   string            `json:"exportDate"`
	Companies    []models.Company  `json:"companies"`
	Suppliers    []models.Supplier `json:"suppliers"`
	Products     []models.Product  `json:"products"`
	OrderHistory []models.Order    `json:"orderHistory"`
}

func NewBackup(st *state.State, now time.Time) Backup {
	return Backup{
		Version:      BackupVersion,
		ExportDate:   now.UTC().Format(time.RFC3339Nano),
		Companies:    st.Companies,
		Suppliers:    st.Suppliers,
		Products:     st.Products,
		OrderHistory: st.OrderHistory,
	}
}

// Encode writes the backup as indented JSON.
func (b Backup) Encode() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// BackupFileName is the default download name for a backup taken at now.
func BackupFileName(now time.Time) string {
	return fmt.Sprintf("SupplySync_Backup_%s.json", now.Format(state.DateLayout))
}

type rawBackup struct {
	Version      looseString       `json:"version"`
	ExportDate   looseString       `json:"exportDate"`
	Companies    []json.RawMessage `json:"companies"`
	Suppliers    []rawSupplier     `json:"suppliers"`
	Products     []rawProduct      `json:"products"`
	OrderHistory []rawOrder        `json:"orderHistory"`
}

// DecodeBackup parses and validates a backup file. Ids are normalized the
// same way stored documents are.
func DecodeBackup(data []byte) (*Backup, error) {
	var raw rawBackup
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if raw.Version.String() == "" || len(raw.Companies) == 0 || raw.Suppliers == nil || raw.Products == nil {
		return nil, ErrInvalidBackup
	}

	doc := rawDocument{
		Companies:    raw.Companies,
		Suppliers:    raw.Suppliers,
		Products:     raw.Products,
		OrderHistory: raw.OrderHistory,
	}
	st, err := doc.toState(time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return &Backup{
		Version:      raw.Version.String(),
		ExportDate:   raw.ExportDate.String(),
		Companies:    st.Companies,
		Suppliers:    st.Suppliers,
		Products:     st.Products,
		OrderHistory: st.OrderHistory,
	}, nil
}

// Restore replaces the collections of st. The selection falls back to the
// first company when the selected one is gone; cart and supplier selection
// are cleared. Id counters keep their value and only move up.
func (b *Backup) Restore(st *state.State) {
	if len(b.Companies) == 0 {
		return
	}
	st.Companies = b.Companies
	st.Suppliers = b.Suppliers
	st.Products = b.Products
	st.OrderHistory = b.OrderHistory
	if st.OrderHistory == nil {
		st.OrderHistory = []models.Order{}
	}

	if _, ok := st.SelectedCompany(); !ok {
		st.SelectedCompanyID = st.Companies[0].ID
	}
	st.Cart = []models.CartItem{}
	st.SelectedSupplierID = 0
	st.SeedIDs()
}
