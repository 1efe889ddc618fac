package storefront

import (
	"context"
	"encoding/json"
	"time"
)

const citiesKey = "storefront:cities"

// Cache описывает хранилище строковых значений с ограниченным временем жизни.
type Cache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedClient кэширует список городов поверх Client. Остальные методы вызываются напрямую.
type CachedClient struct {
	*Client
	cache Cache
	ttl   time.Duration
}

// NewCachedClient оборачивает клиент витрины кэшем городов.
func NewCachedClient(c *Client, cache Cache, ttl time.Duration) *CachedClient {
	return &CachedClient{Client: c, cache: cache, ttl: ttl}
}

// ListCities возвращает список городов из кэша, при промахе запрашивает витрину и заполняет кэш.
// Недоступность кэша не влияет на результат.
func (c *CachedClient) ListCities(ctx context.Context) ([]string, error) {
	if raw, err := c.cache.GetString(ctx, citiesKey); err == nil {
		var cities []string
		if err := json.Unmarshal([]byte(raw), &cities); err == nil {
			return cities, nil
		}
	}

	cities, err := c.Client.ListCities(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(cities); err == nil {
		_ = c.cache.SetString(ctx, citiesKey, string(raw), c.ttl)
	}

	return cities, nil
}
