package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"volumeBreakoutBot/internal/domain"
	"volumeBreakoutBot/internal/ports"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

const (
	// Spot API base URLs
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"
)

// Client implements the ports.ExchangeClient interface against the Binance
// spot API using the go-binance library.
type Client struct {
	spotClient           *binance.Client
	logger               ports.Logger
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey               string
	SecretKey            string
	UseTestnet           bool
	Logger               ports.Logger
	ReconnectDelay       time.Duration // Base reconnect delay (e.g., 1 * time.Second)
	MaxReconnectAttempts int           // Max attempts before giving up
}

// New creates a new Binance spot client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		// Allow creation for public endpoints, but private calls will fail.
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using the global binance.UseTestnet
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	reconnectDelay := cfg.ReconnectDelay
	if reconnectDelay <= 0 {
		reconnectDelay = 1 * time.Second
	}
	maxAttempts := cfg.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	return &Client{
		spotClient:           client,
		logger:               cfg.Logger,
		reconnectDelay:       reconnectDelay,
		maxReconnectAttempts: maxAttempts,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Signature for this request is not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1112, -1121, -1130, -1131: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		case -2010: // New order rejected (includes insufficient balance on spot)
			if strings.Contains(strings.ToLower(apiErr.Message), "insufficient balance") {
				mappedErr = ports.ErrInsufficientFunds
			} else {
				mappedErr = ports.ErrOrderPlacementFailed
			}
		case -2013: // Order does not exist
			mappedErr = ports.ErrNotFound
		case -2014: // API-key format invalid
			mappedErr = ports.ErrInvalidAPIKeys
		case -2015: // Invalid API-key, IP, or permissions for action
			mappedErr = ports.ErrInvalidAPIKeys
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// SetServerTime synchronizes the client's time with the server's time.
func (c *Client) SetServerTime(ctx context.Context) error {
	op := "SetServerTime"
	_, err := c.spotClient.NewSetServerTimeService().Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.spotClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// GetTickerPrice retrieves the last ticker price for a given symbol.
func (c *Client) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	op := "GetTickerPrice"
	prices, err := c.spotClient.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	if len(prices) == 0 {
		err := fmt.Errorf("no ticker data returned for symbol %s", symbol)
		return 0, c.handleError(ctx, err, op)
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse price '%s': %w", prices[0].Price, err)
		return 0, c.handleError(ctx, parseErr, op)
	}
	return price, nil
}

// GetAccountBalance retrieves the free balance for a specific asset (e.g., "USDT").
func (c *Client) GetAccountBalance(ctx context.Context, asset string) (float64, error) {
	op := "GetAccountBalance"
	account, err := c.spotClient.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}

	for _, bal := range account.Balances {
		if bal.Asset == asset {
			// Free, not Locked: only the spendable part may back new orders
			balance, err := strconv.ParseFloat(bal.Free, 64)
			if err != nil {
				parseErr := fmt.Errorf("could not parse balance '%s' for asset %s: %w", bal.Free, asset, err)
				return 0, c.handleError(ctx, parseErr, op)
			}
			return balance, nil
		}
	}

	err = fmt.Errorf("asset %s not found in account balance", asset)
	return 0, c.handleError(ctx, err, op)
}

// PlaceMarketOrder places a spot market order and reports the fill.
func (c *Client) PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string) (*ports.OrderResponse, error) {
	op := "PlaceMarketOrder"
	binanceSide := binance.SideType(side) // Direct conversion, values match

	order, err := c.spotClient.NewCreateOrderService().
		Symbol(symbol).
		Side(binanceSide).
		Type(binance.OrderTypeMarket).
		Quantity(quantity).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	resp := translateOrderResponse(order)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol":   symbol,
		"side":     side,
		"quantity": quantity,
		"orderID":  resp.OrderID,
		"avgPrice": resp.AvgPrice,
		"status":   resp.Status,
	})
	return resp, nil
}

// GetKlines retrieves historical klines/candlestick data for the given symbol.
func (c *Client) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	op := "GetKlines"
	binanceKlines, err := c.spotClient.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	domainKlines := make([]*domain.Kline, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		dk, err := translateKline(bk, symbol, interval)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline: %w", err), op)
		}
		domainKlines = append(domainKlines, dk)
	}

	return domainKlines, nil
}

// StreamKlines starts a WebSocket stream for kline/candlestick data. The
// adapter owns reconnection: on an unexpected disconnect it retries with
// exponential backoff up to maxReconnectAttempts, resetting the attempt count
// after every successful connection.
func (c *Client) StreamKlines(ctx context.Context, symbol, interval string, handler func(kline *domain.Kline), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error) {
	op := "StreamKlines"
	wsCtx, cancelWs := context.WithCancel(ctx)

	// Wrapper for the domain handler to perform translation
	binanceHandler := func(event *binance.WsKlineEvent) {
		domainKline, err := translateWsKline(event)
		if err != nil {
			// Translation failures are logged, not passed to errHandler:
			// they must not trigger reconnection.
			c.logger.Error(wsCtx, err, op+": Failed to translate WebSocket kline event")
			return
		}
		handler(domainKline)
	}

	// Wrapper for the error handler to perform translation and logging
	binanceErrHandler := func(err error) {
		translatedErr := c.handleError(wsCtx, err, op+" WebSocket")
		errHandler(translatedErr)
	}

	// Reconnection loop
	go func() {
		defer cancelWs()

		attempt := 0
		for {
			select {
			case <-wsCtx.Done():
				c.logger.Info(wsCtx, op+": Context cancelled, stopping connection attempts.", map[string]interface{}{"symbol": symbol, "interval": interval})
				return
			default:
				c.logger.Info(wsCtx, op+": Attempting WebSocket connection...", map[string]interface{}{"symbol": symbol, "interval": interval, "attempt": attempt + 1})
				innerDoneCh, innerStopCh, connectErr := binance.WsKlineServe(symbol, interval, binanceHandler, binanceErrHandler)

				if connectErr != nil {
					c.handleError(wsCtx, connectErr, op+" connection attempt")
					attempt++
					if attempt >= c.maxReconnectAttempts {
						c.logger.Error(wsCtx, connectErr, op+": Max reconnection attempts exceeded, giving up.", map[string]interface{}{"symbol": symbol, "interval": interval, "maxAttempts": c.maxReconnectAttempts})
						return
					}

					// Exponential backoff with 10% jitter
					delay := c.reconnectDelay * time.Duration(1<<uint(attempt-1))
					jitter := time.Duration(float64(delay) * 0.1)
					actualDelay := delay + jitter
					c.logger.Info(wsCtx, op+": Connection failed, retrying...", map[string]interface{}{"symbol": symbol, "interval": interval, "attempt": attempt + 1, "delay": actualDelay.String()})

					select {
					case <-time.After(actualDelay):
						continue
					case <-wsCtx.Done():
						c.logger.Info(wsCtx, op+": Context cancelled during backoff.", map[string]interface{}{"symbol": symbol, "interval": interval})
						return
					}
				}

				c.logger.Info(wsCtx, op+": WebSocket connection established.", map[string]interface{}{"symbol": symbol, "interval": interval})
				attempt = 0

				select {
				case <-innerDoneCh:
					c.logger.Warn(wsCtx, op+": WebSocket connection closed unexpectedly. Reconnecting...", map[string]interface{}{"symbol": symbol, "interval": interval})
					// Loop continues and attempts reconnection
				case <-wsCtx.Done():
					c.logger.Info(wsCtx, op+": Context cancelled, stopping WebSocket.", map[string]interface{}{"symbol": symbol, "interval": interval})
					select {
					case innerStopCh <- struct{}{}:
						c.logger.Debug(wsCtx, op+": Stop signal sent to inner WebSocket.", map[string]interface{}{"symbol": symbol, "interval": interval})
					default:
						c.logger.Warn(wsCtx, op+": Failed to send stop signal to inner WebSocket (already closed?).", map[string]interface{}{"symbol": symbol, "interval": interval})
					}
					return
				}
			}
		}
	}()

	// doneCh closes when the reconnection loop exits (shutdown or max
	// attempts); stopCh lets the caller cancel the loop.
	doneCh = make(chan struct{})
	stopCh = make(chan struct{})

	go func() {
		select {
		case <-stopCh:
			c.logger.Info(ctx, op+": Received external stop signal, cancelling WebSocket context.", map[string]interface{}{"symbol": symbol, "interval": interval})
			cancelWs()
		case <-wsCtx.Done():
			c.logger.Debug(ctx, op+": WebSocket context done, stop listener exiting.", map[string]interface{}{"symbol": symbol, "interval": interval})
		}
	}()

	go func() {
		<-wsCtx.Done()
		close(doneCh)
	}()

	return doneCh, stopCh, nil
}

// --- Translation Helpers ---

// translateOrderResponse maps a spot order response onto the ports type.
// Spot responses do not carry an average price field; it is derived from the
// cumulative quote quantity, falling back to a quantity-weighted average over
// the reported fills.
func translateOrderResponse(order *binance.CreateOrderResponse) *ports.OrderResponse {
	if order == nil {
		return nil
	}
	origQty, _ := strconv.ParseFloat(order.OrigQuantity, 64)
	execQty, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	cumQuote, _ := strconv.ParseFloat(order.CummulativeQuoteQuantity, 64)

	var avgPrice float64
	if execQty > 0 && cumQuote > 0 {
		avgPrice = cumQuote / execQty
	} else if len(order.Fills) > 0 {
		var quoteSum, qtySum float64
		for _, fill := range order.Fills {
			p, _ := strconv.ParseFloat(fill.Price, 64)
			q, _ := strconv.ParseFloat(fill.Quantity, 64)
			quoteSum += p * q
			qtySum += q
		}
		if qtySum > 0 {
			avgPrice = quoteSum / qtySum
		}
	}

	return &ports.OrderResponse{
		OrderID:      order.OrderID,
		Symbol:       order.Symbol,
		AvgPrice:     avgPrice,
		OrigQuantity: origQty,
		ExecutedQty:  execQty,
		Status:       string(order.Status),
		Side:         string(order.Side),
		Timestamp:    time.UnixMilli(order.TransactTime),
	}
}

func translateWsKline(event *binance.WsKlineEvent) (*domain.Kline, error) {
	if event == nil {
		return nil, errors.New("received nil kline event")
	}
	k := event.Kline
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", k.Low, err)
	}
	cls, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", k.Close, err)
	}
	vol, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", k.Volume, err)
	}

	return &domain.Kline{
		OpenTime:  time.UnixMilli(k.StartTime),
		CloseTime: time.UnixMilli(k.EndTime),
		Symbol:    k.Symbol,
		Interval:  k.Interval,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
		IsFinal:   k.IsFinal,
	}, nil
}

func translateKline(bk *binance.Kline, symbol, interval string) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return &domain.Kline{
		OpenTime:  time.UnixMilli(bk.OpenTime),
		CloseTime: time.UnixMilli(bk.CloseTime),
		Symbol:    symbol,   // Not carried in the REST kline payload
		Interval:  interval,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
		IsFinal:   true, // Historical klines are always final
	}, nil
}
