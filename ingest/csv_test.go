package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afmzln/dwh-sql-project/ingest"
	"github.com/afmzln/dwh-sql-project/warehouse"
)

// writeExtracts lays out a minimal set of source CSVs.
func writeExtracts(t *testing.T) (crmDir, erpDir string) {
	t.Helper()
	root := t.TempDir()
	crmDir = filepath.Join(root, "source_crm")
	erpDir = filepath.Join(root, "source_erp")
	require.NoError(t, os.MkdirAll(crmDir, 0o755))
	require.NoError(t, os.MkdirAll(erpDir, 0o755))

	files := map[string]string{
		filepath.Join(crmDir, "cust_info.csv"): "cst_id,cst_key,cst_firstname,cst_lastname,cst_marital_status,cst_gndr,cst_create_date\n" +
			"7,AW00000007, Jon ,Yang,M,M,2024-01-01\n" +
			",AW00000008,No,Id,S,F,2024-01-01\n" +
			"9,AW00000009,Bad,Date,S,F,not-a-date\n",
		filepath.Join(crmDir, "prd_info.csv"): "prd_id,prd_key,prd_nm,prd_cost,prd_line,prd_start_dt,prd_end_dt\n" +
			"1,CO-RF-FR-R92B-58,HL Road Frame,,R,2011-07-01,\n",
		filepath.Join(crmDir, "sales_details.csv"): "sls_ord_num,sls_prd_key,sls_cust_id,sls_order_dt,sls_ship_dt,sls_due_dt,sls_sales,sls_quantity,sls_price\n" +
			"SO43697,FR-R92B-58,7,20240105,20240112,20240117,30,3,\n",
		filepath.Join(erpDir, "CUST_AZ12.csv"): "CID,BDATE,GEN\n" +
			"NASAW00000007,1971-10-06,F\n",
		filepath.Join(erpDir, "LOC_A101.csv"): "CID,CNTRY\n" +
			"AW-00000007,US\n",
		filepath.Join(erpDir, "PX_CAT_G1V2.csv"): "ID,CAT,SUBCAT,MAINTENANCE\n" +
			"CO_RF,Components,Road Frames,Yes\n",
	}
	for path, body := range files {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return crmDir, erpDir
}

func TestLoadAll_StagesEveryTable(t *testing.T) {
	crmDir, erpDir := writeExtracts(t)

	snap, err := ingest.NewReader(crmDir, erpDir, nil).LoadAll(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Customers, 3)
	require.Len(t, snap.Products, 1)
	require.Len(t, snap.SalesLines, 1)
	require.Len(t, snap.Demos, 1)
	require.Len(t, snap.Locations, 1)
	require.Len(t, snap.Categories, 1)
}

func TestLoadAll_VerbatimFields(t *testing.T) {
	// Ingestion stages values as the source wrote them; cleansing is a
	// later concern.

	crmDir, erpDir := writeExtracts(t)
	snap, err := ingest.NewReader(crmDir, erpDir, nil).LoadAll(context.Background())
	require.NoError(t, err)

	c := snap.Customers[0]
	require.NotNil(t, c.CustomerID)
	assert.Equal(t, 7, *c.CustomerID)
	assert.Equal(t, " Jon ", c.FirstName, "names keep their whitespace")

	assert.Nil(t, snap.Customers[1].CustomerID, "blank id decodes to nil")
	assert.Nil(t, snap.Customers[2].CreatedAt, "undecodable date decodes to nil")

	p := snap.Products[0]
	assert.Nil(t, p.Cost, "empty cost stays nil, defaulting happens in silver")
	assert.Nil(t, p.EndDate)

	s := snap.SalesLines[0]
	assert.Equal(t, 20240105, s.OrderDate, "numeric date encoding kept as-is")
	assert.Nil(t, s.UnitPrice)
	require.NotNil(t, s.Quantity)
	assert.Equal(t, int64(3), *s.Quantity)
}

func TestLoadAll_MissingFileIsStageFailure(t *testing.T) {
	crmDir, erpDir := writeExtracts(t)
	require.NoError(t, os.Remove(filepath.Join(crmDir, "prd_info.csv")))

	_, err := ingest.NewReader(crmDir, erpDir, nil).LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, warehouse.IsStageFailure(err))

	var stageErr *warehouse.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, warehouse.TableCRMProducts, stageErr.Table)
	assert.Equal(t, "ingest", stageErr.Stage)
}
