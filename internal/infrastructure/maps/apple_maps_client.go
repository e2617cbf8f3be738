package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"TripCompare-App/internal/domain/model"
)

const (
	DefaultBaseURL = "https://maps-api.apple.com"

	tokenEndpoint        = "/v1/token"
	directionsEndpoint   = "/v1/directions"
	autocompleteEndpoint = "/v1/searchAutocomplete"

	// アクセストークンは期限の少し前に更新する
	tokenRefreshMargin = time.Minute
)

// ErrUnexpectedStatus 地図APIが200以外を返した
var ErrUnexpectedStatus = errors.New("unexpected status from maps API")

// APIError 地図APIのエラーレスポンス
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("maps API %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("maps API %d", e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// ClientConfig AppleMapsClientの設定
type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Language string
}

// AppleMapsClient はApple Maps Server APIを使った経路計算・検索の実装
// Route / Autocomplete は非同期に実行し、結果をコールバックで返す。
type AppleMapsClient struct {
	baseURL    string
	language   string
	httpClient *http.Client
	signer     *TokenSigner
	logger     *zap.Logger

	tokenMu     sync.Mutex
	accessToken string
	expiresAt   time.Time

	inflightMu sync.Mutex
	inflight   map[model.RequestID]context.CancelFunc
}

// NewAppleMapsClient はアクセストークンを取得してクライアントを生成する
func NewAppleMapsClient(ctx context.Context, cfg ClientConfig, signer *TokenSigner, logger *zap.Logger) (*AppleMapsClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}

	c := &AppleMapsClient{
		baseURL:    baseURL,
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
		signer:     signer,
		logger:     logger,
		inflight:   make(map[model.RequestID]context.CancelFunc),
	}

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if err := c.refreshAccessTokenLocked(ctx); err != nil {
		return nil, err
	}
	logger.Info("地図APIのセッションを初期化しました", zap.Time("expires_at", c.expiresAt))
	return c, nil
}

// Route は経路を非同期に計算し、callbackを1度だけ呼ぶ
func (c *AppleMapsClient) Route(ctx context.Context, req model.RouteRequest, callback func(err error, data *model.DirectionsResponse)) {
	go func() {
		data, err := c.getDirections(ctx, req)
		callback(err, data)
	}()
}

// Autocomplete は候補検索を非同期に実行し、キャンセル用のIDを返す
func (c *AppleMapsClient) Autocomplete(ctx context.Context, req model.SearchRequest, callback func(err error, response *model.AutocompleteResponse)) model.RequestID {
	id := model.RequestID(uuid.NewString())
	reqCtx, cancel := context.WithCancel(ctx)

	c.inflightMu.Lock()
	c.inflight[id] = cancel
	c.inflightMu.Unlock()

	go func() {
		response, err := c.getAutocomplete(reqCtx, req)
		c.release(id)
		callback(err, response)
	}()
	return id
}

// Cancel は進行中の検索リクエストを中断する。完了済み・不明なIDは無視する
func (c *AppleMapsClient) Cancel(id model.RequestID) {
	c.inflightMu.Lock()
	cancel, ok := c.inflight[id]
	delete(c.inflight, id)
	c.inflightMu.Unlock()

	if ok {
		cancel()
	}
}

func (c *AppleMapsClient) release(id model.RequestID) {
	c.inflightMu.Lock()
	cancel, ok := c.inflight[id]
	delete(c.inflight, id)
	c.inflightMu.Unlock()

	if ok {
		cancel()
	}
}

func (c *AppleMapsClient) getDirections(ctx context.Context, req model.RouteRequest) (*model.DirectionsResponse, error) {
	// 1. クエリパラメータを構築
	params := url.Values{}
	params.Set("origin", formatLatLng(req.Origin))
	params.Set("destination", formatLatLng(req.Destination))
	params.Set("transportType", req.TransportType)
	if !req.DepartureDate.IsZero() {
		params.Set("departureDate", req.DepartureDate.UTC().Format(time.RFC3339))
	}
	params.Set("lang", c.language)

	// 2. APIを呼び出す
	body, err := c.get(ctx, directionsEndpoint, params)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	// 3. JSONレスポンスをパース（受信したJSONはそのまま保持）
	var resp model.DirectionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("経路レスポンスのパースに失敗: %w", err)
	}
	resp.Raw = body
	return &resp, nil
}

func (c *AppleMapsClient) getAutocomplete(ctx context.Context, req model.SearchRequest) (*model.AutocompleteResponse, error) {
	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("searchLocation", formatLatLng(req.BiasCoordinate))
	if len(req.LimitToCountries) > 0 {
		params.Set("limitToCountries", strings.ToUpper(strings.Join(req.LimitToCountries, ",")))
	}
	var filters []string
	if req.IncludePointsOfInterest {
		filters = append(filters, "Poi")
	}
	if req.IncludeAddresses {
		filters = append(filters, "Address")
	}
	if len(filters) > 0 {
		params.Set("resultTypeFilter", strings.Join(filters, ","))
	}
	params.Set("lang", c.language)

	body, err := c.get(ctx, autocompleteEndpoint, params)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var resp model.AutocompleteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("検索レスポンスのパースに失敗: %w", err)
	}
	return &resp, nil
}

// get は認証付きでGETを実行する。空のボディの場合は (nil, nil) を返す
func (c *AppleMapsClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("APIリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み込みに失敗: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, body)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	return trimmed, nil
}

// token は有効なアクセストークンを返す。期限が近ければ更新する
func (c *AppleMapsClient) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if time.Until(c.expiresAt) > tokenRefreshMargin {
		return c.accessToken, nil
	}
	if err := c.refreshAccessTokenLocked(ctx); err != nil {
		return "", err
	}
	return c.accessToken, nil
}

type tokenResponse struct {
	AccessToken      string `json:"accessToken"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
}

func (c *AppleMapsClient) refreshAccessTokenLocked(ctx context.Context) error {
	developerToken, err := c.signer.DeveloperToken()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tokenEndpoint, nil)
	if err != nil {
		return fmt.Errorf("トークンリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+developerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("アクセストークンの取得に失敗: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("トークンレスポンスの読み込みに失敗: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("トークンレスポンスのパースに失敗: %w", err)
	}
	if tr.AccessToken == "" {
		return errors.New("アクセストークンが空です")
	}

	c.accessToken = tr.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(tr.ExpiresInSeconds) * time.Second)
	return nil
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIError(status int, body []byte) *APIError {
	var er apiErrorResponse
	_ = json.Unmarshal(body, &er)
	return &APIError{StatusCode: status, Message: er.Error.Message}
}

// formatLatLng 指数表記を使わない最短表現で "lat,lng" にする
func formatLatLng(p model.LatLng) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}
