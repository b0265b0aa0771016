package feed

import (
	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/pkg/exception"
)

// BinanceKline mirrors one message of the provider's <symbol>@kline_<interval>
// stream. Numeric fields arrive as JSON strings.
type BinanceKline struct {
	EventType string        `json:"e"`
	EventTime int64         `json:"E"`
	Symbol    string        `json:"s"`
	Kline     BinanceKlineK `json:"k"`
}

type BinanceKlineK struct {
	StartTime int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Symbol    string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

// Normalize converts a raw provider message into a Candle. Messages that are
// not klines return ErrFeedNotACandle; klines with missing or garbled numeric
// fields return ErrFeedProtocol. Nothing is ever coerced to zero here.
func Normalize(raw []byte) (model.Candle, error) {
	var payload BinanceKline
	if err := sonic.ConfigFastest.Unmarshal(raw, &payload); err != nil {
		return model.Candle{}, exception.ErrFeedProtocol
	}
	return NormalizeKline(payload)
}

// NormalizeKline converts an already-decoded kline payload into a Candle.
func NormalizeKline(payload BinanceKline) (model.Candle, error) {
	if payload.EventType != "kline" {
		return model.Candle{}, exception.ErrFeedNotACandle
	}
	k := payload.Kline
	if k.StartTime <= 0 {
		return model.Candle{}, exception.ErrFeedProtocol
	}

	open, err := parsePrice(k.Open)
	if err != nil {
		return model.Candle{}, err
	}
	high, err := parsePrice(k.High)
	if err != nil {
		return model.Candle{}, err
	}
	low, err := parsePrice(k.Low)
	if err != nil {
		return model.Candle{}, err
	}
	closePrice, err := parsePrice(k.Close)
	if err != nil {
		return model.Candle{}, err
	}
	volume, err := parsePrice(k.Volume)
	if err != nil {
		return model.Candle{}, err
	}

	candle := model.Candle{
		Time:     k.StartTime / 1000,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
		Complete: k.Closed,
	}
	if err := candle.Validate(); err != nil {
		return model.Candle{}, err
	}
	return candle, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, exception.ErrFeedProtocol
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, exception.ErrFeedProtocol
	}
	return d, nil
}
