package protocol

import "github.com/busybox42/discv5/pkg/packet"

// RegTopic asks the recipient to register the sender's record under a
// topic. Ticket is empty on the first attempt.
type RegTopic struct {
	ReqID      []byte
	NodeRecord []byte
	Topic      []byte
	Ticket     []byte
}

func NewRegTopic(nodeRecord, topic, ticket []byte) *RegTopic {
	return &RegTopic{
		ReqID:      packet.RequestID(),
		NodeRecord: nodeRecord,
		Topic:      topic,
		Ticket:     ticket,
	}
}

func (r *RegTopic) RequestID() []byte   { return r.ReqID }
func (r *RegTopic) Type() (Type, error) { return RegTopicType, nil }
func (r *RegTopic) Name() string        { return "REGTOPIC" }

func (r *RegTopic) Encode() ([]byte, error) {
	return encodeFields(r.Name(), r.ReqID, r.NodeRecord, r.Topic, r.Ticket)
}

func DecodeRegTopic(b []byte) (*RegTopic, error) {
	return decodeFields[RegTopic]("REGTOPIC", b)
}

// Ticket answers RegTopic with the time to wait before retrying.
type Ticket struct {
	ReqID    []byte
	Ticket   []byte
	WaitTime uint64
}

func (t *Ticket) RequestID() []byte   { return t.ReqID }
func (t *Ticket) Type() (Type, error) { return TicketType, nil }
func (t *Ticket) Name() string        { return "TICKET" }

func (t *Ticket) Encode() ([]byte, error) {
	return encodeFields(t.Name(), t.ReqID, t.Ticket, t.WaitTime)
}

func DecodeTicket(b []byte) (*Ticket, error) {
	return decodeFields[Ticket]("TICKET", b)
}

// RegConfirmation tells the registrant it was placed in the topic table.
type RegConfirmation struct {
	ReqID []byte
	Topic []byte
}

func (r *RegConfirmation) RequestID() []byte   { return r.ReqID }
func (r *RegConfirmation) Type() (Type, error) { return RegConfirmationType, nil }
func (r *RegConfirmation) Name() string        { return "REGCONFIRMATION" }

func (r *RegConfirmation) Encode() ([]byte, error) {
	return encodeFields(r.Name(), r.ReqID, r.Topic)
}

func DecodeRegConfirmation(b []byte) (*RegConfirmation, error) {
	return decodeFields[RegConfirmation]("REGCONFIRMATION", b)
}

// TopicQuery asks for the nodes registered under a topic.
type TopicQuery struct {
	ReqID []byte
	Topic []byte
}

func NewTopicQuery(topic []byte) *TopicQuery {
	return &TopicQuery{ReqID: packet.RequestID(), Topic: topic}
}

func (q *TopicQuery) RequestID() []byte   { return q.ReqID }
func (q *TopicQuery) Type() (Type, error) { return TopicQueryType, nil }
func (q *TopicQuery) Name() string        { return "TOPICQUERY" }

func (q *TopicQuery) Encode() ([]byte, error) {
	return encodeFields(q.Name(), q.ReqID, q.Topic)
}

func DecodeTopicQuery(b []byte) (*TopicQuery, error) {
	return decodeFields[TopicQuery]("TOPICQUERY", b)
}
