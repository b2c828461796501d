package order

import "strings"

// Status is the lifecycle state of an order.
// The type of every event is also a Status: the event is the transition target.
type Status string

const (
	StatusCreated         Status = "Created"
	StatusPaymentReceived Status = "PaymentReceived"
	StatusCancelled       Status = "Cancelled"
	StatusInvoiced        Status = "Invoiced"
	StatusReturned        Status = "Returned"
)

var statuses = []Status{
	StatusCreated,
	StatusPaymentReceived,
	StatusCancelled,
	StatusInvoiced,
	StatusReturned,
}

// Statuses returns every status in declaration order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// ParseStatus maps free text to a Status, ignoring case and surrounding space.
// It never fails loudly: unknown input yields ok == false.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range statuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

func (s Status) String() string { return string(s) }

// Channel is the sales channel an order came through.
type Channel string

const (
	ChannelEcommerce  Channel = "Ecommerce"
	ChannelCallCenter Channel = "CallCenter"
	ChannelStore      Channel = "Store"
	ChannelAffiliate  Channel = "Affiliate"
)

var channels = []Channel{
	ChannelEcommerce,
	ChannelCallCenter,
	ChannelStore,
	ChannelAffiliate,
}

func Channels() []Channel {
	out := make([]Channel, len(channels))
	copy(out, channels)
	return out
}

// ParseChannel is the Channel counterpart of ParseStatus.
func ParseChannel(s string) (Channel, bool) {
	s = strings.TrimSpace(s)
	for _, ch := range channels {
		if strings.EqualFold(s, string(ch)) {
			return ch, true
		}
	}
	return "", false
}

func (c Channel) String() string { return string(c) }
