package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bishop254/vts-backend/internal/config"
	"github.com/bishop254/vts-backend/internal/models"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	subscribeQoS   = 1
	connectTimeout = 10 * time.Second
	messageTimeout = 5 * time.Second

	// DefaultMaxInFlight bounds concurrent message handlers when none is configured.
	DefaultMaxInFlight = 16
)

// FixIngester is the write path a subscriber feeds.
type FixIngester interface {
	Ingest(ctx context.Context, fix models.LocationFix) (models.LocationFix, error)
}

// Subscriber consumes JSON location updates from an MQTT topic such as
// fleet/{vehicle_id}/location and hands them to an ingester. Bad messages are
// logged and dropped.
//
// Messages are handled off the client goroutine, at most maxInFlight at a time.
type Subscriber struct {
	client   mqtt.Client
	topic    string
	ingestor FixIngester

	slots    chan struct{}
	inflight sync.WaitGroup

	accepted atomic.Int64
	rejected atomic.Int64
}

func newSubscriber(topic string, ingestor FixIngester, maxInFlight int) *Subscriber {
	if maxInFlight < 1 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Subscriber{
		topic:    topic,
		ingestor: ingestor,
		slots:    make(chan struct{}, maxInFlight),
	}
}

// NewSubscriber prepares a subscriber. It does not connect.
func NewSubscriber(cfg config.MQTTConfig, ingestor FixIngester) *Subscriber {
	s := newSubscriber(cfg.Topic, ingestor, cfg.MaxInFlight)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetOrderMatters(false).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(s.subscribe).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects to the broker. The topic is (re)subscribed on every connect.
func (s *Subscriber) Start() error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("mqtt connect timed out")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Stop disconnects and waits for in-flight handlers to finish.
func (s *Subscriber) Stop() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
	s.inflight.Wait()
	log.WithFields(log.Fields{
		"accepted": s.accepted.Load(),
		"rejected": s.rejected.Load(),
	}).Info("MQTT subscriber stopped")
}

func (s *Subscriber) subscribe(c mqtt.Client) {
	token := c.Subscribe(s.topic, subscribeQoS, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		log.WithError(err).WithField("topic", s.topic).Error("MQTT subscribe failed")
		return
	}
	log.WithField("topic", s.topic).Info("Subscribed to location updates")
}

func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	s.inflight.Add(1)
	defer s.inflight.Done()

	s.slots <- struct{}{}
	defer func() { <-s.slots }()

	s.process(msg)
}

func (s *Subscriber) process(msg mqtt.Message) {
	logger := log.WithField("topic", msg.Topic())

	var fix models.LocationFix
	if err := json.Unmarshal(msg.Payload(), &fix); err != nil {
		s.rejected.Add(1)
		logger.WithError(err).Warn("Dropping malformed location update")
		return
	}
	if fix.VehicleID == 0 {
		if id, ok := vehicleIDFromTopic(msg.Topic()); ok {
			fix.VehicleID = id
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	if _, err := s.ingestor.Ingest(ctx, fix); err != nil {
		s.rejected.Add(1)
		logger.WithError(err).WithField("vehicle_id", fix.VehicleID).Warn("Skipping location update")
		return
	}
	s.accepted.Add(1)
	logger.WithField("vehicle_id", fix.VehicleID).Debug("Stored location update")
}

// vehicleIDFromTopic reads the numeric segment of fleet/{id}/location.
func vehicleIDFromTopic(topic string) (int64, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[len(parts)-2], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
