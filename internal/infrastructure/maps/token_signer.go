package maps

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSigner は地図APIのトークン交換に使う開発者トークンを用意する
// 発行済みの静的トークン、またはES256の秘密鍵で署名したJWTのどちらかを使う。
type TokenSigner struct {
	static string
	teamID string
	keyID  string
	key    *ecdsa.PrivateKey
	ttl    time.Duration
	now    func() time.Time
}

// NewStaticTokenSigner 発行済みのトークンをそのまま使う
func NewStaticTokenSigner(token string) *TokenSigner {
	return &TokenSigner{static: token, now: time.Now}
}

// NewTokenSigner PEM形式のES256秘密鍵から署名するTokenSignerを作成
func NewTokenSigner(teamID, keyID string, privateKeyPEM []byte, ttl time.Duration) (*TokenSigner, error) {
	if teamID == "" || keyID == "" {
		return nil, errors.New("チームIDとキーIDは必須です")
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("秘密鍵の読み込みに失敗: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenSigner{
		teamID: teamID,
		keyID:  keyID,
		key:    key,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// DeveloperToken トークン交換用のBearerトークンを返す
func (s *TokenSigner) DeveloperToken() (string, error) {
	if s.static != "" {
		return s.static, nil
	}
	if s.key == nil {
		return "", errors.New("開発者トークンが設定されていません")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    s.teamID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("開発者トークンの署名に失敗: %w", err)
	}
	return signed, nil
}
