package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"TripCompare-App/internal/domain/model"
	"TripCompare-App/internal/domain/repository"
)

const routeCacheCollection = "routeCache"

// FirestoreRouteCacheEntry Firestoreに保存するキャッシュ
// expireAtにはFirestoreのTTLポリシーを設定しておく。
type FirestoreRouteCacheEntry struct {
	Payload   string    `firestore:"payload"`
	CreatedAt time.Time `firestore:"createdAt"`
	ExpireAt  time.Time `firestore:"expireAt"`
}

// FirestoreRouteCacheRepository Firestoreを使用した経路レスポンスのキャッシュ
type FirestoreRouteCacheRepository struct {
	client *firestore.Client
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewFirestoreRouteCacheRepository 新しいFirestoreRouteCacheRepositoryを作成
func NewFirestoreRouteCacheRepository(client *firestore.Client, ttl time.Duration, logger *zap.Logger) repository.RouteCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirestoreRouteCacheRepository{
		client: client,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (r *FirestoreRouteCacheRepository) Get(ctx context.Context, key string) (*model.DirectionsResponse, error) {
	doc, err := r.client.Collection(routeCacheCollection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("経路キャッシュの取得に失敗しました: %w", err)
	}

	var entry FirestoreRouteCacheEntry
	if err := doc.DataTo(&entry); err != nil {
		return nil, fmt.Errorf("データの変換に失敗しました: %w", err)
	}
	return entry.toDirections(r.now())
}

func (r *FirestoreRouteCacheRepository) Save(ctx context.Context, key string, directions *model.DirectionsResponse) error {
	entry, err := newRouteCacheEntry(directions, r.ttl, r.now())
	if err != nil {
		return err
	}

	if _, err := r.client.Collection(routeCacheCollection).Doc(key).Set(ctx, entry); err != nil {
		return fmt.Errorf("経路キャッシュの保存に失敗しました: %w", err)
	}
	r.logger.Debug("経路キャッシュを保存", zap.String("key", key), zap.Time("expire_at", entry.ExpireAt))
	return nil
}

func newRouteCacheEntry(directions *model.DirectionsResponse, ttl time.Duration, now time.Time) (*FirestoreRouteCacheEntry, error) {
	payload := directions.Raw
	if len(payload) == 0 {
		var err error
		payload, err = json.Marshal(directions)
		if err != nil {
			return nil, fmt.Errorf("経路レスポンスのJSONマーシャル失敗: %w", err)
		}
	}
	return &FirestoreRouteCacheEntry{
		Payload:   string(payload),
		CreatedAt: now,
		ExpireAt:  now.Add(ttl),
	}, nil
}

// toDirections 期限切れの場合は (nil, nil)
func (e *FirestoreRouteCacheEntry) toDirections(now time.Time) (*model.DirectionsResponse, error) {
	if !now.Before(e.ExpireAt) {
		return nil, nil
	}

	var directions model.DirectionsResponse
	if err := json.Unmarshal([]byte(e.Payload), &directions); err != nil {
		return nil, fmt.Errorf("キャッシュのJSONアンマーシャル失敗: %w", err)
	}
	directions.Raw = json.RawMessage(e.Payload)
	return &directions, nil
}
