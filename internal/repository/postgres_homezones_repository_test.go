package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripCompare-App/internal/infrastructure/database"
)

// fakeRows はScanで固定の行を返すrowScanner
type fakeRows struct {
	rows    [][3]string
	pos     int
	scanErr error
	err     error
}

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.rows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	row := f.rows[f.pos-1]
	for i := range dest {
		*(dest[i].(*string)) = row[i]
	}
	return nil
}

func (f *fakeRows) Err() error { return f.err }

func TestScanHomeZoneRows(t *testing.T) {
	rows := &fakeRows{rows: [][3]string{
		{"1", "Downtown", `{"type":"Polygon","coordinates":[[[-123.2,49.2],[-123.0,49.2],[-123.0,49.32],[-123.2,49.32],[-123.2,49.2]]]}`},
		{"2", "Airport", `{"type":"MultiPolygon","coordinates":[[[[-123.2,49.17],[-123.16,49.17],[-123.16,49.2],[-123.2,49.17]]]]}`},
	}}

	zones, err := scanHomeZoneRows(rows)

	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "1", zones[0].ID)
	assert.Equal(t, "Downtown", zones[0].Name)
	assert.True(t, planar.MultiPolygonContains(zones[0].Boundary, orb.Point{-123.11, 49.28}))
	assert.Equal(t, "Airport", zones[1].Name)
}

func TestScanHomeZoneRows_Errors(t *testing.T) {
	scanErr := errors.New("column count mismatch")
	_, err := scanHomeZoneRows(&fakeRows{rows: [][3]string{{"1", "x", "{}"}}, scanErr: scanErr})
	assert.ErrorIs(t, err, scanErr)

	iterErr := errors.New("connection reset")
	_, err = scanHomeZoneRows(&fakeRows{err: iterErr})
	assert.ErrorIs(t, err, iterErr)

	_, err = scanHomeZoneRows(&fakeRows{rows: [][3]string{{"1", "x", `{"type":"Point","coordinates":[0,0]}`}}})
	assert.Error(t, err)
}

func TestPostgresHomeZonesRepository_Integration(t *testing.T) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	password := os.Getenv("SUPABASE_DB_PASSWORD")
	if supabaseURL == "" || password == "" {
		t.Skip("SUPABASE_URLまたはSUPABASE_DB_PASSWORDが設定されていません。統合テストをスキップします。")
	}

	dsn, err := database.SupabaseDSN(supabaseURL, password)
	require.NoError(t, err)
	client, err := database.NewPostgreSQLClient(context.Background(), dsn)
	require.NoError(t, err)
	defer client.Close()

	zones, err := NewPostgresHomeZonesRepository(client).GetAll(context.Background())
	require.NoError(t, err)
	for _, z := range zones {
		assert.NotEmpty(t, z.ID)
		assert.NotEmpty(t, z.Boundary)
	}
}
