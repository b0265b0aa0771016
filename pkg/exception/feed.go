package exception

import "errors"

var (
	ErrFeedConnectFailed = errors.New("feed: connect failed")
	ErrFeedGeoBlocked    = errors.New("feed: provider rejects this region")
	ErrFeedProtocol      = errors.New("feed: malformed upstream payload")
	ErrFeedClosed        = errors.New("feed: upstream closed connection")
	ErrFeedNotACandle    = errors.New("feed: message is not a candle")
	ErrFeedInvalidMarket = errors.New("feed: invalid market")
)

var (
	ErrSubscriberQueueFull = errors.New("feed: subscriber queue full")
	ErrSubscriberClosed    = errors.New("feed: subscriber closed")
)
