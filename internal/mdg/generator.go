package mdg

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"orefeed/internal/feed/binance"
	"orefeed/internal/feed/kraken"
)

// Kind selects the vendor stream type to synthesize.
type Kind uint8

const (
	KindQuote Kind = iota + 1
	KindTrade
)

// ParseKind maps "quote" and "trade" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "quote":
		return KindQuote, nil
	case "trade":
		return KindTrade, nil
	default:
		return 0, fmt.Errorf("unsupported kind: %s", s)
	}
}

// Instrument is one vendor symbol to generate data for.
type Instrument struct {
	Feed   string
	Symbol string
}

// RawTick is one synthetic vendor message.
type RawTick struct {
	Channel string
	Payload []byte
	TsRecv  int64
}

// Generator creates synthetic raw vendor messages.
type Generator struct {
	instruments []Instrument
	kind        Kind
	basePrice   decimal.Decimal
	baseSize    decimal.Decimal
	spread      decimal.Decimal
	tick        decimal.Decimal
	index       int
	seq         []uint64
}

// NewGenerator creates a generator cycling through instruments.
func NewGenerator(instruments []Instrument, kind Kind, basePrice, baseSize, spread string) (*Generator, error) {
	if len(instruments) == 0 {
		return nil, fmt.Errorf("no instruments")
	}
	for _, inst := range instruments {
		if inst.Feed != binance.Name && inst.Feed != kraken.Name {
			return nil, fmt.Errorf("unsupported feed: %s", inst.Feed)
		}
	}
	if kind != KindQuote && kind != KindTrade {
		return nil, fmt.Errorf("unsupported kind: %d", kind)
	}
	price, err := decimal.NewFromString(basePrice)
	if err != nil {
		return nil, fmt.Errorf("base price: %w", err)
	}
	size, err := decimal.NewFromString(baseSize)
	if err != nil {
		return nil, fmt.Errorf("base size: %w", err)
	}
	if !size.IsPositive() {
		size = decimal.NewFromInt(1)
	}
	sp, err := decimal.NewFromString(spread)
	if err != nil {
		return nil, fmt.Errorf("spread: %w", err)
	}
	if sp.IsNegative() {
		sp = decimal.Zero
	}
	return &Generator{
		instruments: instruments,
		kind:        kind,
		basePrice:   price,
		baseSize:    size,
		spread:      sp,
		tick:        decimal.New(1, -2),
		seq:         make([]uint64, len(instruments)),
	}, nil
}

// Next creates the next raw message in sequence.
func (g *Generator) Next(now time.Time) RawTick {
	i := g.index
	inst := g.instruments[i]
	g.index = (g.index + 1) % len(g.instruments)
	g.seq[i]++
	seq := g.seq[i]

	// walk the price up and down so books see modifies
	step := int64(seq%8) - 4
	if step < 0 {
		step = -step
	}
	price := g.basePrice.Add(g.tick.Mul(decimal.NewFromInt(step)))
	q := quote{
		Bid:    price.Sub(g.spread),
		BidQty: g.baseSize,
		Ask:    price.Add(g.spread),
		AskQty: g.baseSize.Add(decimal.NewFromInt(int64(seq % 3))),
	}

	var (
		streamType string
		payload    []byte
	)
	switch {
	case inst.Feed == binance.Name && g.kind == KindQuote:
		streamType = binance.StreamBookTicker
		payload = binanceBookTicker(seq, inst.Symbol, q)
	case inst.Feed == binance.Name:
		streamType = binance.StreamTrade
		payload = binanceTrade(seq, inst.Symbol, now, price, g.baseSize, seq%2 == 0)
	case g.kind == KindQuote:
		streamType = kraken.StreamSpread
		payload = krakenSpread(inst.Symbol, now, q)
	default:
		streamType = kraken.StreamTrade
		payload = krakenTrade(inst.Symbol, now, price, g.baseSize, seq%2 == 0)
	}

	return RawTick{
		Channel: Channel(inst.Feed, inst.Symbol, streamType),
		Payload: payload,
		TsRecv:  now.UnixNano(),
	}
}

// Channel builds the raw channel name of a vendor stream.
func Channel(feedName, symbol, streamType string) string {
	return "raw/" + feedName + "/" + symbol + "@" + streamType
}
