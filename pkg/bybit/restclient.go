package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RESTClient struct {
	baseURL     string
	tickersPath string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
}

func NewRESTClient(baseURL, tickersPath string, timeout time.Duration, logger *zap.Logger) *RESTClient {
	return &RESTClient{
		baseURL:     baseURL,
		tickersPath: tickersPath,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Every(RequestInterval), 1),
		logger:      logger,
	}
}

// GetTickers fetches the latest ticker snapshot for every listed symbol.
// Every failure wraps ErrFetch.
func (c *RESTClient) GetTickers(ctx context.Context) ([]Ticker, error) {
	// Stay within the per-minute request budget
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", ErrFetch, err)
	}

	endpoint := c.baseURL + c.tickersPath

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrFetch, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: making request: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: bybit error: status %d: %s", ErrFetch, resp.StatusCode, body)
	}

	var rawResp TickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrFetch, err)
	}

	if rawResp.RetCode != 0 {
		return nil, fmt.Errorf("%w: bybit error: ret_code=%d ret_msg=%s", ErrFetch, rawResp.RetCode, rawResp.RetMsg)
	}

	tickers, skipped := ParseTickerList(rawResp.Result)
	if skipped > 0 {
		c.logger.Warn("skipped malformed ticker rows",
			zap.Int("skipped", skipped),
			zap.Int("parsed", len(tickers)),
		)
	}
	return tickers, nil
}
