package tracking

import (
	"log"
	"net/http"

	"github.com/matst80/slask-browse/pkg/messaging"
	"github.com/matst80/slask-browse/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitTracking struct {
	prefix     string
	connection *amqp.Connection
}

const (
	sessionEvent uint16 = 0
	searchEvent  uint16 = 1
)

func NewRabbitTracking(url, prefix string) (*RabbitTracking, error) {
	ret := RabbitTracking{
		connection: nil,
		prefix:     prefix,
	}
	err := ret.connect(url)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (t *RabbitTracking) connect(url string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}
	t.connection = conn
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return messaging.DefineTopic(ch, t.prefix, messaging.SearchTracked)
}

// Connection exposes the underlying connection for other publishers.
func (t *RabbitTracking) Connection() *amqp.Connection {
	return t.connection
}

func (t *RabbitTracking) Close() error {
	return t.connection.Close()
}

func (t *RabbitTracking) send(data any) error {
	return messaging.SendChange(t.connection, t.prefix, messaging.SearchTracked, data)
}

type BaseEvent struct {
	InstanceId string `json:"instance_id"`
	Context    string `json:"context,omitempty"`
	Event      uint16 `json:"event"`
}

type Session struct {
	*BaseEvent
	UserAgent string `json:"user_agent,omitempty"`
	Ip        string `json:"ip,omitempty"`
	Language  string `json:"language,omitempty"`
}

func (rt *RabbitTracking) TrackSession(instanceId string, r *http.Request) {
	err := rt.send(Session{
		BaseEvent: &BaseEvent{Event: sessionEvent, InstanceId: instanceId, Context: "browse"},
		Language:  r.Header.Get("Accept-Language"),
		UserAgent: r.UserAgent(),
		Ip:        clientIp(r),
	})
	if err != nil {
		log.Println("error sending session event: ", err)
	}
}

type SearchEventData struct {
	*BaseEvent
	Endpoint        string            `json:"endpoint"`
	Params          map[string]string `json:"params,omitempty"`
	NumberOfResults int               `json:"noi"`
	Query           string            `json:"query"`
	Downgraded      bool              `json:"downgraded,omitempty"`
}

func (rt *RabbitTracking) TrackSearch(event types.SearchEvent) {
	err := rt.send(newSearchEventData(event))
	if err != nil {
		log.Println("error sending search event: ", err)
	}
}

func newSearchEventData(event types.SearchEvent) *SearchEventData {
	return &SearchEventData{
		BaseEvent:       &BaseEvent{Event: searchEvent, InstanceId: event.InstanceId, Context: "browse"},
		Endpoint:        event.Endpoint,
		Params:          event.Params,
		NumberOfResults: event.Results,
		Query:           event.Query,
		Downgraded:      event.Downgraded,
	}
}

func clientIp(r *http.Request) string {
	ip := r.Header.Get("X-Real-Ip")
	if ip == "" {
		ip = r.Header.Get("X-Forwarded-For")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	return ip
}
