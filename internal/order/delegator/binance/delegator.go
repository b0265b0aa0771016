package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	yerrors "github.com/yanun0323/errors"

	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

const (
	_binanceBaseUrl = "https://api.binance.com"

	_requestTimeout = 15 * time.Second
	_recvWindow     = "5000"
)

// Delegator talks to the exchange's spot REST API with signed requests.
type Delegator struct {
	client  *http.Client
	baseURL string
	key     string
	secret  string
}

func NewDelegator(client *http.Client, key, secret string) *Delegator {
	if client == nil {
		client = http.DefaultClient
	}
	return &Delegator{
		client:  client,
		baseURL: _binanceBaseUrl,
		key:     key,
		secret:  secret,
	}
}

// WithBaseURL points the delegator at a different endpoint, e.g. the
// exchange's testnet.
func (d *Delegator) WithBaseURL(base string) *Delegator {
	d.baseURL = strings.TrimSuffix(base, "/")
	return d
}

func (d *Delegator) CreateOrder(ctx context.Context, symbol model.Market, typ enum.OrderType, side enum.OrderSide, amount, price decimal.Decimal) (model.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol.Symbol())
	params.Set("side", strings.ToUpper(side.String()))
	params.Set("type", strings.ToUpper(typ.String()))
	params.Set("quantity", amount.String())
	params.Set("newOrderRespType", "FULL")
	if typ == enum.OrderTypeLimit {
		params.Set("price", price.String())
		params.Set("timeInForce", "GTC")
	}

	body, err := d.do(ctx, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return model.Order{}, err
	}

	var resp responseOrder
	if err := sonic.ConfigFastest.Unmarshal(body, &resp); err != nil {
		return model.Order{}, yerrors.Wrap(exception.ErrOrderDecodeBody, err.Error())
	}
	return toOrder(symbol, resp)
}

func (d *Delegator) OpenOrders(ctx context.Context, symbol model.Market) ([]model.Order, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol.Symbol())
	}

	body, err := d.do(ctx, http.MethodGet, "/api/v3/openOrders", params)
	if err != nil {
		return nil, err
	}

	var resp []responseOrder
	if err := sonic.ConfigFastest.Unmarshal(body, &resp); err != nil {
		return nil, yerrors.Wrap(exception.ErrOrderDecodeBody, err.Error())
	}

	out := make([]model.Order, 0, len(resp))
	for _, r := range resp {
		market := symbol
		if market == "" {
			market = model.Market(r.Symbol)
		}
		o, err := toOrder(market, r)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (d *Delegator) CancelOrder(ctx context.Context, id string, symbol model.Market) (model.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol.Symbol())
	params.Set("orderId", id)

	body, err := d.do(ctx, http.MethodDelete, "/api/v3/order", params)
	if err != nil {
		return model.Order{}, err
	}

	var resp responseOrder
	if err := sonic.ConfigFastest.Unmarshal(body, &resp); err != nil {
		return model.Order{}, yerrors.Wrap(exception.ErrOrderDecodeBody, err.Error())
	}
	return toOrder(symbol, resp)
}

// Trades lists account fills. The exchange scopes this call per symbol, so
// an empty symbol is a parameter error rather than "everything".
func (d *Delegator) Trades(ctx context.Context, symbol model.Market) ([]model.Trade, error) {
	if symbol == "" {
		return nil, exception.ErrOrderInvalidParams
	}
	params := url.Values{}
	params.Set("symbol", symbol.Symbol())

	body, err := d.do(ctx, http.MethodGet, "/api/v3/myTrades", params)
	if err != nil {
		return nil, err
	}

	var resp []responseTrade
	if err := sonic.ConfigFastest.Unmarshal(body, &resp); err != nil {
		return nil, yerrors.Wrap(exception.ErrOrderDecodeBody, err.Error())
	}

	out := make([]model.Trade, 0, len(resp))
	for _, r := range resp {
		tr, err := toTrade(symbol, r)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

func (d *Delegator) OrderStatus(ctx context.Context, id string, symbol model.Market) (model.Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol.Symbol())
	params.Set("orderId", id)

	body, err := d.do(ctx, http.MethodGet, "/api/v3/order", params)
	if err != nil {
		return model.Order{}, err
	}

	var resp responseOrder
	if err := sonic.ConfigFastest.Unmarshal(body, &resp); err != nil {
		return model.Order{}, yerrors.Wrap(exception.ErrOrderDecodeBody, err.Error())
	}
	return toOrder(symbol, resp)
}

// do signs and performs one REST call with an explicit timeout; expiry is
// reported as an order timeout so callers fall into the normal failure path.
func (d *Delegator) do(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", _recvWindow)
	// the signature covers the exact query string and must come last
	query := params.Encode()
	query += "&signature=" + d.sign(query)

	ctx, cancel := context.WithTimeout(ctx, _requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", d.key)

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, yerrors.Wrap(exception.ErrOrderTimeout, err.Error())
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr responseError
		if err := sonic.ConfigFastest.Unmarshal(body, &apiErr); err == nil && apiErr.Msg != "" {
			return nil, yerrors.Wrap(exception.ErrOrderRejected, apiErr.Msg)
		}
		return nil, yerrors.Wrap(exception.ErrOrderRejected, resp.Status)
	}
	return body, nil
}

func (d *Delegator) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(d.secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
