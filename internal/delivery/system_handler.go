package delivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrEvil84/BlueStorage/internal/cache"
)

const indexPage = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>BlueStorage API</title>
    <style>
        body { font-family: Helvetica, Arial, sans-serif; line-height: 1.6; padding: 20px; background-color: #f9f9f9; color: #333; }
        h1, h2 { border-bottom: 1px solid #ccc; padding-bottom: 5px; }
        ul { list-style: none; padding-left: 0; }
        li { margin-bottom: 15px; background-color: #fff; padding: 10px; border: 1px solid #eee; border-radius: 4px; }
        code { background-color: #e8e8e8; padding: 3px 6px; border-radius: 3px; font-family: Consolas, Monaco, monospace; }
        .method { font-weight: bold; display: inline-block; width: 60px; }
        .method-post { color: #49cc90; }
        .method-get { color: #61affe; }
        .method-patch { color: #fca130; }
        .method-delete { color: #f93e3e; }
    </style>
</head>
<body>
    <h1>BlueStorage Product API</h1>

    <h2>Products</h2>
    <ul>
        <li><span class="method method-get">GET</span> <code><a href="/product">/product</a></code> - Search products. Query parameters: <code>search</code> (existing, non_existing, min_amount; default existing), <code>order</code> (asc, desc; default desc), <code>page</code> (default 0), <code>perPage</code> (default 10), <code>minAmount</code> (threshold for min_amount). (e.g., <a href="/product?search=min_amount&order=asc">/product?search=min_amount&amp;order=asc</a>)</li>
        <li><span class="method method-post">POST</span> <code>/product</code> - Add a product. Body: <code>{"name": "string", "amount": int}</code>. Responds <code>"added"</code>.</li>
        <li><span class="method method-patch">PATCH</span> <code>/product/{id}</code> - Replace a product's name and amount. Body: <code>{"name": "string", "amount": int}</code>. Responds <code>"updated"</code>.</li>
        <li><span class="method method-delete">DELETE</span> <code>/product/{id}</code> - Delete a product. Responds <code>"deleted"</code>.</li>
    </ul>

    <h2>Service</h2>
    <ul>
        <li><span class="method method-get">GET</span> <code><a href="/health">/health</a></code> - Store reachability.</li>
        <li><span class="method method-get">GET</span> <code><a href="/cache/stats">/cache/stats</a></code> - Search cache counters (only when a cache is configured).</li>
    </ul>
</body>
</html>
`

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStats reports search cache counters.
type CacheStats interface {
	Stats() cache.Stats
}

type SystemHandler struct {
	store   Pinger
	cache   CacheStats
	timeout time.Duration
	log     *logrus.Logger
}

func NewSystemHandler(store Pinger, timeout time.Duration, logger *logrus.Logger) *SystemHandler {
	return &SystemHandler{store: store, timeout: timeout, log: logger}
}

// WithCacheStats exposes the counters of c at GET /cache/stats.
func (h *SystemHandler) WithCacheStats(c CacheStats) *SystemHandler {
	h.cache = c
	return h
}

func (h *SystemHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/", h.Index)
	router.GET("/health", h.Health)
	if h.cache != nil {
		router.GET("/cache/stats", h.CacheStats)
	}
}

func (h *SystemHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

func (h *SystemHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := h.store.Ping(ctx); err != nil {
		h.log.WithField("request_id", RequestIDFromContext(c)).Errorf("Health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Stats())
}

// StoreTimeout bounds the request context of every handler after it.
func StoreTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
