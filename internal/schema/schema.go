package schema

// SchemaVersion is the ORE schema revision written by this module.
const SchemaVersion = "ore1.1.3"

// Encoding is the stream encoding announced for every ORE output channel.
const Encoding = "Content-Type application/msgpack\nContent-Schema " + SchemaVersion

// Channel name prefixes.
const (
	RawPrefix = "raw/"
	OREPrefix = "ore/"
)

// MessageType is the first field of every ORE record.
type MessageType uint8

const (
	MessageUnknown      MessageType = 0
	MessageOrderAdd     MessageType = 1
	MessageOrderDelete  MessageType = 5
	MessageOrderModify  MessageType = 6
	MessageOffBookTrade MessageType = 11
	MessageBookControl  MessageType = 13
)

func (t MessageType) String() string {
	switch t {
	case MessageOrderAdd:
		return "OrderAdd"
	case MessageOrderDelete:
		return "OrderDelete"
	case MessageOrderModify:
		return "OrderModify"
	case MessageOffBookTrade:
		return "OffBookTrade"
	case MessageBookControl:
		return "BookControl"
	default:
		return "Unknown"
	}
}

// FieldCount returns the number of array elements a record of this type carries.
func (t MessageType) FieldCount() int {
	switch t {
	case MessageOrderAdd:
		return 10
	case MessageOrderDelete:
		return 7
	case MessageOrderModify:
		return 10
	case MessageOffBookTrade:
		return 9
	case MessageBookControl:
		return 8
	default:
		return 0
	}
}

// Side marks the book side of a trade.
type Side uint8

const (
	SideAsk Side = 'a'
	SideBid Side = 'b'
)

func (s Side) String() string {
	switch s {
	case SideAsk:
		return "a"
	case SideBid:
		return "b"
	default:
		return "?"
	}
}

// Book control commands.
const (
	BookCommandContinuous uint8 = 'C'
)

// Header is shared by every ORE record.
type Header struct {
	RecvTime     int64
	VendorOffset int64
	VendorSeqno  uint64
	Batch        uint8
	InstrumentID int32
}

// OrderAdd places a new order on the book.
type OrderAdd struct {
	Header
	OrderID int32
	Price   string
	Qty     string
	IsBid   bool
}

// OrderDelete removes an order from the book.
type OrderDelete struct {
	Header
	OrderID int32
}

// OrderModify replaces price and quantity of a resting order.
type OrderModify struct {
	Header
	OrderID    int32
	NewOrderID int32
	Price      string
	Qty        string
}

// OffBookTrade reports a trade that does not touch the modelled book.
type OffBookTrade struct {
	Header
	Price string
	Qty   string
	Side  Side
}

// BookControl announces the book state of an instrument.
type BookControl struct {
	Header
	Uncross uint8
	Command uint8
}

// Message is a decoded ORE record. Fields not carried by Type are zero.
type Message struct {
	Type MessageType
	Header

	OrderID    int32
	NewOrderID int32
	Price      string
	Qty        string
	IsBid      bool
	Side       Side
	Uncross    uint8
	Command    uint8
}
