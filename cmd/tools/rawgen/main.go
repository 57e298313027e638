package main

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"orefeed/internal/feed/binance"
	"orefeed/internal/feed/kraken"
	"orefeed/internal/mdg"
	"orefeed/internal/symbology"
	"orefeed/internal/wal"
)

const rawEncoding = "Content-Type application/json"

func main() {
	path := flag.String("log", "", "Log file to append raw streams to")
	peer := flag.String("peer", "feed-a", "Peer name of the primary feed handler")
	backup := flag.String("backup-peer", "", "Peer name of a backup feed handler repeating every message")
	symbols := flag.String("symbols", "binance:btcusdt,kraken:XBT/USD", "Comma separated feed:symbol list")
	symbologyPath := flag.String("symbology", "", "Generate for every vendor symbol of this symbology CSV instead of -symbols")
	kind := flag.String("kind", "quote", "Market data kind: quote|trade")
	ticks := flag.Int("ticks", 10, "Number of messages to generate")
	interval := flag.Duration("interval", 0, "Delay between messages")
	basePrice := flag.String("base-price", "100", "Base price")
	baseSize := flag.String("base-size", "1", "Base size")
	spread := flag.String("spread", "0.5", "Half of the bid/ask spread")
	flag.Parse()

	if *path == "" || *ticks <= 0 {
		logs.Errorf("log path is required and ticks must be > 0")
		os.Exit(2)
	}

	instruments, err := loadInstruments(*symbols, *symbologyPath)
	if err != nil {
		logs.Errorf("instruments: %+v", err)
		os.Exit(2)
	}
	mdKind, err := mdg.ParseKind(*kind)
	if err != nil {
		logs.Errorf("invalid kind: %+v", err)
		os.Exit(2)
	}
	generator, err := mdg.NewGenerator(instruments, mdKind, *basePrice, *baseSize, *spread)
	if err != nil {
		logs.Errorf("generator init failed: %+v", err)
		os.Exit(2)
	}

	l, err := wal.Open(wal.DefaultConfig(*path))
	if err != nil {
		logs.Errorf("open log failed: %+v", err)
		os.Exit(1)
	}
	defer l.Close()

	peers := []string{*peer}
	if *backup != "" {
		peers = append(peers, *backup)
	}
	handles := make(map[string]wal.StreamHandle)

	for i := 0; i < *ticks; i++ {
		tick := generator.Next(time.Now().UTC())
		for _, p := range peers {
			key := p + "\x00" + tick.Channel
			h, ok := handles[key]
			if !ok {
				h, err = l.Announce(p, tick.Channel, rawEncoding)
				if err != nil {
					logs.Errorf("announce %s failed: %+v", tick.Channel, err)
					os.Exit(1)
				}
				handles[key] = h
			}
			if err := l.Append(tick.TsRecv, h, tick.Payload); err != nil {
				logs.Errorf("append failed: %+v", err)
				os.Exit(1)
			}
		}
		if *interval > 0 && i < *ticks-1 {
			time.Sleep(*interval)
		}
	}

	if err := l.Sync(); err != nil {
		logs.Errorf("sync failed: %+v", err)
		os.Exit(1)
	}
	logs.Infof("wrote %d messages on %d streams to %s", *ticks*len(peers), len(handles), *path)
}

func loadInstruments(symbols, symbologyPath string) ([]mdg.Instrument, error) {
	if symbologyPath != "" {
		table, err := symbology.Load(symbologyPath)
		if err != nil {
			return nil, err
		}
		var out []mdg.Instrument
		for _, name := range []string{binance.Name, kraken.Name} {
			for _, e := range table.Feed(name) {
				out = append(out, mdg.Instrument{Feed: e.Feed, Symbol: e.Vendor})
			}
		}
		return out, nil
	}

	var out []mdg.Instrument
	for _, item := range strings.Split(symbols, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		feedName, symbol, ok := strings.Cut(item, ":")
		if !ok || symbol == "" {
			return nil, errors.Errorf("invalid symbol %q, want feed:symbol", item)
		}
		out = append(out, mdg.Instrument{Feed: feedName, Symbol: symbol})
	}
	return out, nil
}
