// watch subscribes to a few markets and prints whatever the feed sends,
// falling back to local simulation when the server is unreachable.
package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/model"
	"main/internal/transport"
	"main/pkg/feedclient"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "Feed websocket URL")
	markets := flag.String("markets", "BTC/USDT,ETH/USDT", "Comma-separated markets")
	flag.Parse()

	client, err := feedclient.New(feedclient.Config{
		URL: *url,
		OnEvent: func(msg transport.ServerMessage) {
			switch msg.Type {
			case transport.TypeKline:
				fmt.Printf("%s [%s] close=%s volume=%s\n", msg.Market, msg.Source, msg.Data.Close, msg.Data.Volume)
			default:
				fmt.Printf("%s %s %s %s\n", msg.Type, msg.Market, msg.Status, msg.Message)
			}
		},
	})
	if err != nil {
		logs.Errorf("client init failed, err: %+v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-sys.Shutdown()
		cancel()
	}()

	for _, market := range strings.Split(*markets, ",") {
		if err := client.Subscribe(model.Market(strings.TrimSpace(market))); err != nil {
			logs.Warnf("subscribe %s failed, err: %+v", market, err)
		}
	}

	_ = client.Run(ctx)
}
