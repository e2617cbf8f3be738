package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"TripCompare-App/internal/domain/model"
)

func TestRouteCacheEntry_RoundTripKeepsRawPayload(t *testing.T) {
	raw := `{"routes":[{"name":"Hwy 1","distanceMeters":12000,"durationSeconds":900}],"stepPaths":[]}`
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	entry, err := newRouteCacheEntry(&model.DirectionsResponse{Raw: []byte(raw)}, 30*time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), entry.ExpireAt)

	got, err := entry.toDirections(now.Add(10 * time.Minute))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 12000, got.Routes[0].DistanceMeters)
	assert.JSONEq(t, raw, string(got.Raw))
}

func TestRouteCacheEntry_Expired(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	entry, err := newRouteCacheEntry(&model.DirectionsResponse{Routes: []model.DirectionsRoute{{Name: "x"}}}, time.Minute, now)
	require.NoError(t, err)

	got, err := entry.toDirections(now.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, got)
}

// TestFirestoreRouteCacheRepository_Emulator はFirestoreエミュレーターがある場合のみ実行する
func TestFirestoreRouteCacheRepository_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOSTが設定されていません。統合テストをスキップします。")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "tripcompare-test")
	require.NoError(t, err)
	defer client.Close()

	repo := NewFirestoreRouteCacheRepository(client, time.Hour, zap.NewNop())
	key := model.NewRouteRequest(model.LatLng{Lat: 49.28, Lng: -123.11}, model.LatLng{Lat: 49.25, Lng: -123.1}, time.Now()).CacheKey()

	missing, err := repo.Get(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Save(ctx, key, &model.DirectionsResponse{Raw: []byte(`{"routes":[{"distanceMeters":42}]}`)}))

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 42, got.Routes[0].DistanceMeters)
}
