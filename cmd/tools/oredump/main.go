package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/bytedance/sonic"

	"orefeed/internal/codec"
	"orefeed/internal/schema"
	"orefeed/internal/wal"
)

type record struct {
	Channel      string `json:"channel"`
	Peer         string `json:"peer"`
	Offset       int64  `json:"offset"`
	Type         string `json:"type"`
	RecvTime     int64  `json:"recv_time"`
	VendorOffset int64  `json:"vendor_offset"`
	VendorSeqno  uint64 `json:"vendor_seqno"`
	Batch        uint8  `json:"batch"`
	InstrumentID int32  `json:"instrument_id"`
	OrderID      int32  `json:"order_id,omitempty"`
	NewOrderID   int32  `json:"new_order_id,omitempty"`
	Price        string `json:"price,omitempty"`
	Qty          string `json:"qty,omitempty"`
	IsBid        *bool  `json:"is_bid,omitempty"`
	Side         string `json:"side,omitempty"`
	Command      string `json:"command,omitempty"`
}

func main() {
	path := flag.String("log", "", "Log file to dump")
	channel := flag.String("channel", "", "Only show channels with this prefix")
	speed := flag.Float64("speed", 0, "Playback speed (1=real-time, 0=no pacing)")
	follow := flag.Bool("follow", false, "Keep waiting for new records")
	decode := flag.Bool("decode", false, "Decode ORE payloads")
	asJSON := flag.Bool("json", false, "Print decoded ORE records as JSON lines")
	flag.Parse()

	if *path == "" {
		log.Fatalf("log path is required")
	}

	cfg := wal.DefaultConfig(*path)
	cfg.ReadOnly = true
	l, err := wal.Open(cfg)
	if err != nil {
		log.Fatalf("open log failed: %v", err)
	}
	defer l.Close()

	pb, err := wal.NewPlayback(l, wal.PlaybackConfig{Speed: *speed, Follow: *follow})
	if err != nil {
		log.Fatalf("playback init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		index int
		msgs  []schema.Message
	)
	err = pb.Run(ctx, func(e wal.Entry, ann wal.Announcement) error {
		if !strings.HasPrefix(ann.Channel, *channel) {
			return nil
		}
		index++
		isORE := strings.HasPrefix(ann.Channel, schema.OREPrefix) && ann.Encoding == schema.Encoding

		if !*asJSON {
			fmt.Printf("%06d off=%d seq=%d ts=%d peer=%s channel=%s len=%d\n",
				index, e.Offset, e.Seq, e.Time, ann.Peer, ann.Channel, len(e.Payload))
			if !isORE {
				if *decode {
					fmt.Printf("  %s\n", e.Payload)
				}
				return nil
			}
		}
		if !isORE || (!*decode && !*asJSON) {
			return nil
		}

		decoded, err := codec.DecodeAppend(msgs[:0], e.Payload)
		msgs = decoded
		if err != nil {
			return fmt.Errorf("decode %s at %d: %w", ann.Channel, e.Offset, err)
		}
		for _, m := range msgs {
			if *asJSON {
				data, err := sonic.ConfigFastest.Marshal(toRecord(e, ann, m))
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				continue
			}
			printMessage(m)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("dump failed: %v", err)
	}
}

func printMessage(m schema.Message) {
	fmt.Printf("  %s recv=%d voff=%d vseq=%d batch=%d inst=%d", m.Type, m.RecvTime, m.VendorOffset, m.VendorSeqno, m.Batch, m.InstrumentID)
	switch m.Type {
	case schema.MessageOrderAdd:
		fmt.Printf(" id=%d price=%s qty=%s bid=%t\n", m.OrderID, m.Price, m.Qty, m.IsBid)
	case schema.MessageOrderDelete:
		fmt.Printf(" id=%d\n", m.OrderID)
	case schema.MessageOrderModify:
		fmt.Printf(" id=%d new_id=%d price=%s qty=%s\n", m.OrderID, m.NewOrderID, m.Price, m.Qty)
	case schema.MessageOffBookTrade:
		fmt.Printf(" price=%s qty=%s side=%s\n", m.Price, m.Qty, m.Side)
	case schema.MessageBookControl:
		fmt.Printf(" uncross=%d command=%c\n", m.Uncross, m.Command)
	default:
		fmt.Println()
	}
}

func toRecord(e wal.Entry, ann wal.Announcement, m schema.Message) record {
	r := record{
		Channel:      ann.Channel,
		Peer:         ann.Peer,
		Offset:       e.Offset,
		Type:         m.Type.String(),
		RecvTime:     m.RecvTime,
		VendorOffset: m.VendorOffset,
		VendorSeqno:  m.VendorSeqno,
		Batch:        m.Batch,
		InstrumentID: m.InstrumentID,
		OrderID:      m.OrderID,
		NewOrderID:   m.NewOrderID,
		Price:        m.Price,
		Qty:          m.Qty,
	}
	switch m.Type {
	case schema.MessageOrderAdd:
		isBid := m.IsBid
		r.IsBid = &isBid
	case schema.MessageOffBookTrade:
		r.Side = m.Side.String()
	case schema.MessageBookControl:
		r.Command = string(rune(m.Command))
	}
	return r
}
