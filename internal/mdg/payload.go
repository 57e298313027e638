package mdg

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	priceDigits = 8
	qtyDigits   = 8
)

type quote struct {
	Bid    decimal.Decimal
	BidQty decimal.Decimal
	Ask    decimal.Decimal
	AskQty decimal.Decimal
}

func binanceBookTicker(updateID uint64, symbol string, q quote) []byte {
	return fmt.Appendf(nil, `{"u":%d,"s":"%s","b":"%s","B":"%s","a":"%s","A":"%s"}`,
		updateID, strings.ToUpper(symbol),
		q.Bid.StringFixed(priceDigits), q.BidQty.StringFixed(qtyDigits),
		q.Ask.StringFixed(priceDigits), q.AskQty.StringFixed(qtyDigits))
}

func binanceTrade(tradeID uint64, symbol string, now time.Time, price, qty decimal.Decimal, buyerMaker bool) []byte {
	ms := now.UnixMilli()
	return fmt.Appendf(nil, `{"e":"trade","E":%d,"s":"%s","t":%d,"p":"%s","q":"%s","T":%d,"m":%t,"M":true}`,
		ms, strings.ToUpper(symbol), tradeID,
		price.StringFixed(priceDigits), qty.StringFixed(qtyDigits), ms, buyerMaker)
}

func krakenTime(now time.Time) string {
	return fmt.Sprintf("%d.%06d", now.Unix(), now.Nanosecond()/1000)
}

func krakenSpread(pair string, now time.Time, q quote) []byte {
	return fmt.Appendf(nil, `[0,["%s","%s","%s","%s","%s"],"spread","%s"]`,
		q.Bid.StringFixed(5), q.Ask.StringFixed(5), krakenTime(now),
		q.BidQty.StringFixed(qtyDigits), q.AskQty.StringFixed(qtyDigits), pair)
}

func krakenTrade(pair string, now time.Time, price, qty decimal.Decimal, buy bool) []byte {
	side := "s"
	if buy {
		side = "b"
	}
	return fmt.Appendf(nil, `[0,[["%s","%s","%s","%s","l",""]],"trade","%s"]`,
		price.StringFixed(5), qty.StringFixed(qtyDigits), krakenTime(now), side, pair)
}
