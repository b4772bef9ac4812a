package report

import (
	"bytes"
	"testing"

	"vehicle_parking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteAdminSummary(t *testing.T) {
	summary := domain.AdminSummary{Lots: []domain.LotSummary{
		{LotID: 1, Name: "Central", PostalCode: 560001, Available: 3, Occupied: 1, Revenue: 40},
		{LotID: 2, Name: "Unnamed", PostalCode: 560002, Available: 2},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteAdminSummary(&buf, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Location", rows[0][1])
	assert.Equal(t, []string{"1", "Central", "560001", "3", "1", "40"}, rows[1])
	assert.Equal(t, "Unnamed", rows[2][1])
}

func TestWriteUserSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUserSummary(&buf, domain.UserSummary{
		Usage: []domain.UsageEntry{{LocationName: "Airport", Count: 2}},
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(UsageSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Location", "Reservations"}, {"Airport", "2"}}, rows)
}
