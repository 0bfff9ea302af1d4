package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplysync-backend/internal/models"
	"supplysync-backend/internal/state"
)

func sampleState() *state.State {
	st := state.New(fixedNow)
	st.AddCompany(models.Company{Name: "Harbor"})
	supID := st.SaveSupplier(models.Supplier{Name: "Acme", Email: "a@acme.test"})
	pID := st.SaveProduct(models.Product{SupplierID: supID, Title: "Widget", Price: 4.5, Code: "W1", AmazonCode: "B1"})
	st.AddToCart(pID)
	st.PlaceOrder(nil)
	return st
}

func TestBackupRoundTrip(t *testing.T) {
	src := sampleState()
	data, err := NewBackup(src, fixedNow).Encode()
	require.NoError(t, err)

	var head map[string]any
	require.NoError(t, json.Unmarshal(data, &head))
	assert.Equal(t, "1.0", head["version"])
	assert.Equal(t, "2024-05-06T10:00:00Z", head["exportDate"])

	b, err := DecodeBackup(data)
	require.NoError(t, err)

	dst := state.New(fixedNow)
	b.Restore(dst)
	assert.Equal(t, src.Companies, dst.Companies)
	assert.Equal(t, src.Suppliers, dst.Suppliers)
	assert.Equal(t, src.Products, dst.Products)
	assert.Equal(t, src.OrderHistory, dst.OrderHistory)
}

func TestRestoreResetsSelection(t *testing.T) {
	b := &Backup{
		Version:   BackupVersion,
		Companies: []models.Company{{ID: 5, Name: "Only"}},
		Suppliers: []models.Supplier{{ID: 1, CompanyID: 5, Name: "Acme"}},
		Products:  []models.Product{{ID: 1, CompanyID: 5, SupplierID: 1, Title: "Widget", Price: 1}},
	}
	st := sampleState()
	st.SelectSupplier(1)
	st.AddToCart(1)

	b.Restore(st)
	assert.Equal(t, int64(5), st.SelectedCompanyID)
	assert.Empty(t, st.Cart)
	assert.Zero(t, st.SelectedSupplierID)
	assert.NotNil(t, st.OrderHistory)
	assert.Empty(t, st.OrderHistory)
}

func TestRestoreOnlyRaisesIDCounters(t *testing.T) {
	st := sampleState()
	before := st.NextIDs
	b := &Backup{
		Version:   BackupVersion,
		Companies: []models.Company{{ID: 1, Name: "Only"}},
		Suppliers: []models.Supplier{},
		Products:  []models.Product{{ID: 40, CompanyID: 1, Title: "Far"}},
	}

	b.Restore(st)
	assert.Equal(t, before.Company, st.NextIDs.Company)
	assert.Equal(t, before.Supplier, st.NextIDs.Supplier)
	assert.Equal(t, int64(41), st.NextIDs.Product)
	assert.Greater(t, st.SaveSupplier(models.Supplier{Name: "New"}), int64(1))
}

func TestDecodeBackupInvalid(t *testing.T) {
	cases := map[string]string{
		"NotJSON":     `nope`,
		"NoVersion":   `{"companies": [{"id": 1}], "suppliers": [], "products": []}`,
		"NoCompanies": `{"version": "1.0", "companies": [], "suppliers": [], "products": []}`,
		"NoSuppliers": `{"version": "1.0", "companies": [{"id": 1}], "products": []}`,
		"NoProducts":  `{"version": "1.0", "companies": [{"id": 1}], "suppliers": []}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeBackup([]byte(body))
			assert.ErrorIs(t, err, ErrInvalidBackup)
		})
	}
}

func TestBackupFileName(t *testing.T) {
	assert.Equal(t, "SupplySync_Backup_2024-05-06.json", BackupFileName(fixedNow))
}
