package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/daemonp/paradox2mqtt/internal/config"
	"github.com/daemonp/paradox2mqtt/internal/log"
	"github.com/daemonp/paradox2mqtt/internal/paradox/spectra"
)

const (
	offlinePayload = "offline"
	onlinePayload  = "online"
)

type MQTT struct {
	config    *config.MQTTConfig
	source    Source
	log       *log.Logger
	client    mqtt.Client
	topics    *Topics
	newClient func(*mqtt.ClientOptions) mqtt.Client
	mu        sync.Mutex
	published map[string]bool
}

func NewMQTT(cfg *config.MQTTConfig, src Source, logger *log.Logger) *MQTT {
	m := &MQTT{
		config:    cfg,
		source:    src,
		log:       logger,
		topics:    NewTopics(cfg.Prefix),
		newClient: mqtt.NewClient,
		published: make(map[string]bool),
	}
	src.OnEvent(m.PublishEvent)
	return m
}

func (m *MQTT) GetPrefix() string { return m.config.Prefix }

func (m *MQTT) Topics() *Topics { return m.topics }

func (m *MQTT) Connect() error {
	tlsConfig, err := m.tlsConfig()
	if err != nil {
		return err
	}
	broker := BrokerURL(m.config.Host, m.config.Port, tlsConfig != nil)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(m.config.ClientID)
	opts.SetUsername(m.config.Username)
	opts.SetPassword(m.config.Password)
	opts.SetCleanSession(m.config.Clean)
	opts.SetKeepAlive(time.Duration(m.config.Keepalive) * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(m.onConnect)
	opts.SetConnectionLostHandler(m.onDisconnect)
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	opts.SetWill(m.topics.Status(), offlinePayload, byte(m.config.QOS), true)

	m.client = m.newClient(opts)

	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}

	m.log.Info("Connected to MQTT broker: %s", broker)
	return nil
}

func (m *MQTT) tlsConfig() (*tls.Config, error) {
	if m.config.CA == "" && m.config.Cert == "" {
		return nil, nil
	}
	cfg := &tls.Config{InsecureSkipVerify: !m.config.RejectUnauthorized}
	if m.config.CA != "" {
		pem, err := os.ReadFile(m.config.CA)
		if err != nil {
			return nil, fmt.Errorf("failed to read MQTT CA: %v", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", m.config.CA)
		}
		cfg.RootCAs = pool
	}
	if m.config.Cert != "" {
		cert, err := tls.LoadX509KeyPair(m.config.Cert, m.config.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to load MQTT client certificate: %v", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

func (m *MQTT) onConnect(client mqtt.Client) {
	m.log.Info("MQTT connection established")
	m.publishOnlineStatus()
	m.PublishPanel()
	m.PublishLabels()
}

func (m *MQTT) onDisconnect(client mqtt.Client, err error) {
	m.log.Error("MQTT connection lost: %v", err)
}

func (m *MQTT) publishOnlineStatus() {
	m.Publish(m.topics.Status(), onlinePayload, true)
}

// PublishPanel publishes the panel announcement.
func (m *MQTT) PublishPanel() {
	ann := m.source.Announcement()
	m.Publish(m.topics.Panel(), map[string]interface{}{
		"product":  ann.ProductID.String(),
		"firmware": ann.Firmware.String(),
		"panel_id": fmt.Sprintf("%04x", ann.PanelID),
	}, true)
}

// PublishLabels publishes every label table and one retained topic per
// labeled entity. Entities that disappeared since the last call have their
// retained message cleared.
func (m *MQTT) PublishLabels() {
	current := make(map[string]bool)
	for class, records := range m.source.AllLabels() {
		if len(records) == 0 {
			continue
		}
		m.Publish(m.topics.Labels(class), records, true)
		for index, props := range records {
			topic := m.topics.Entity(class, props.Label())
			payload := make(map[string]interface{}, len(props)+1)
			for k, v := range props {
				payload[k] = v
			}
			payload["index"] = index
			m.Publish(topic, payload, true)
			current[topic] = true
		}
	}

	m.mu.Lock()
	stale := make([]string, 0)
	for topic := range m.published {
		if !current[topic] {
			stale = append(stale, topic)
		}
	}
	m.published = current
	m.mu.Unlock()

	sort.Strings(stale)
	for _, topic := range stale {
		m.clear(topic)
	}
}

type eventPayload struct {
	Time         time.Time            `json:"time"`
	Major        uint8                `json:"major"`
	Minor        uint8                `json:"minor"`
	Description  string               `json:"description"`
	Partition    int                  `json:"partition"`
	Label        string               `json:"label,omitempty"`
	ModuleSerial spectra.ModuleSerial `json:"module_serial"`
}

// PublishEvent forwards a decoded live event, not retained.
func (m *MQTT) PublishEvent(ev *spectra.LiveEvent) {
	m.Publish(m.topics.Event(), eventPayload{
		Time:         ev.Time.Time(time.Local),
		Major:        ev.Event.Major,
		Minor:        ev.Event.Minor,
		Description:  ev.Event.String(),
		Partition:    ev.Partition,
		Label:        ev.LabelText(),
		ModuleSerial: ev.ModuleSerial,
	}, false)
}

// Publish sends message to topic. Strings go out as they are, anything else
// as JSON.
func (m *MQTT) Publish(topic string, message interface{}, retain bool) {
	if m.client == nil {
		return
	}
	var payload []byte
	switch v := message.(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		b, err := json.Marshal(message)
		if err != nil {
			m.log.Error("Failed to marshal message for topic %s: %v", topic, err)
			return
		}
		payload = b
	}

	token := m.client.Publish(topic, byte(m.config.QOS), retain, payload)
	if token.Wait() && token.Error() != nil {
		m.log.Error("Failed to publish message to topic %s: %v", topic, token.Error())
	} else {
		m.log.Debug("Published message to topic: %s", topic)
	}
}

func (m *MQTT) clear(topic string) {
	if m.client == nil {
		return
	}
	token := m.client.Publish(topic, byte(m.config.QOS), true, []byte{})
	if token.Wait() && token.Error() != nil {
		m.log.Error("Failed to clear topic %s: %v", topic, token.Error())
	}
}

func (m *MQTT) Close() {
	if m.client != nil && m.client.IsConnected() {
		m.Publish(m.topics.Status(), offlinePayload, true)
		m.client.Disconnect(250)
	}
}
