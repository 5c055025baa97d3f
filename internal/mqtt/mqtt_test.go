package mqtt

import (
	"encoding/json"
	"sync"
	"testing"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/paradox2mqtt/internal/config"
	"github.com/daemonp/paradox2mqtt/internal/log"
	"github.com/daemonp/paradox2mqtt/internal/panel"
	"github.com/daemonp/paradox2mqtt/internal/paradox"
	"github.com/daemonp/paradox2mqtt/internal/paradox/spectra"
)

type doneToken struct {
	pahomqtt.Token
}

func (doneToken) Wait() bool   { return true }
func (doneToken) Error() error { return nil }

type published struct {
	topic   string
	retain  bool
	payload []byte
}

type fakeClient struct {
	pahomqtt.Client
	opts         *pahomqtt.ClientOptions
	mu           sync.Mutex
	messages     []published
	connected    bool
	disconnected bool
}

func (c *fakeClient) Connect() pahomqtt.Token {
	c.connected = true
	c.opts.OnConnect(c)
	return doneToken{}
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Disconnect(uint) {
	c.connected = false
	c.disconnected = true
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic: topic, retain: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) last(topic string) (published, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].topic == topic {
			return c.messages[i], true
		}
	}
	return published{}, false
}

type fakeSource struct {
	labels   map[paradox.EntityClass]map[int]paradox.Properties
	handlers []panel.EventHandler
}

func (s *fakeSource) Announcement() paradox.Announcement {
	return paradox.Announcement{ProductID: paradox.ProductMagellanMG5050, Firmware: paradox.Firmware{Version: 6, Revision: 80, Build: 2}, PanelID: 0x0a0b}
}

func (s *fakeSource) AllLabels() map[paradox.EntityClass]map[int]paradox.Properties {
	return s.labels
}

func (s *fakeSource) OnEvent(h panel.EventHandler) { s.handlers = append(s.handlers, h) }

func connected(t *testing.T, src *fakeSource) (*MQTT, *fakeClient) {
	t.Helper()
	fc := &fakeClient{}
	m := NewMQTT(&config.MQTTConfig{Prefix: "paradox2mqtt", Host: "broker", Port: 1883, ClientID: "test"}, src, log.Nop())
	m.newClient = func(o *pahomqtt.ClientOptions) pahomqtt.Client {
		fc.opts = o
		return fc
	}
	require.NoError(t, m.Connect())
	return m, fc
}

func TestConnectPublishesState(t *testing.T) {
	src := &fakeSource{labels: map[paradox.EntityClass]map[int]paradox.Properties{
		paradox.ClassZone:   {1: {"label": "Front_Door"}, 7: {"label": "Kitchen"}},
		paradox.ClassOutput: {1: {"label": "Gate", "on": false, "pulse": false}},
		paradox.ClassUser:   {},
	}}
	_, fc := connected(t, src)

	assert.Equal(t, "paradox2mqtt/status", fc.opts.WillTopic)
	assert.Equal(t, []byte("offline"), fc.opts.WillPayload)
	assert.True(t, fc.opts.WillRetained)

	status, ok := fc.last("paradox2mqtt/status")
	require.True(t, ok)
	assert.Equal(t, "online", string(status.payload))
	assert.True(t, status.retain)

	info, ok := fc.last("paradox2mqtt/panel")
	require.True(t, ok)
	assert.JSONEq(t, `{"product":"MAGELLAN_MG5050","firmware":"6.80 build 2","panel_id":"0a0b"}`, string(info.payload))

	table, ok := fc.last("paradox2mqtt/labels/zone")
	require.True(t, ok)
	assert.JSONEq(t, `{"1":{"label":"Front_Door"},"7":{"label":"Kitchen"}}`, string(table.payload))

	gate, ok := fc.last("paradox2mqtt/output/gate")
	require.True(t, ok)
	assert.True(t, gate.retain)
	assert.JSONEq(t, `{"label":"Gate","on":false,"pulse":false,"index":1}`, string(gate.payload))

	_, ok = fc.last("paradox2mqtt/labels/user")
	assert.False(t, ok)
}

func TestPublishLabelsClearsRemovedEntities(t *testing.T) {
	src := &fakeSource{labels: map[paradox.EntityClass]map[int]paradox.Properties{
		paradox.ClassZone: {1: {"label": "Front_Door"}, 2: {"label": "Garage"}},
	}}
	m, fc := connected(t, src)

	src.labels = map[paradox.EntityClass]map[int]paradox.Properties{
		paradox.ClassZone: {1: {"label": "Front_Door"}},
	}
	m.PublishLabels()

	garage, ok := fc.last("paradox2mqtt/zone/garage")
	require.True(t, ok)
	assert.Empty(t, garage.payload)
	assert.True(t, garage.retain)

	door, ok := fc.last("paradox2mqtt/zone/front-door")
	require.True(t, ok)
	assert.NotEmpty(t, door.payload)
}

func TestLiveEventsArePublished(t *testing.T) {
	src := &fakeSource{}
	_, fc := connected(t, src)
	require.Len(t, src.handlers, 1)

	ev := &spectra.LiveEvent{
		Time:         spectra.Timestamp{Century: 20, Year: 24, Month: 5, Day: 17, Hour: 8, Minute: 30},
		Event:        spectra.Event{Major: 1, Minor: 3},
		Partition:    2,
		ModuleSerial: spectra.ModuleSerial{0x01, 0x02, 0x03, 0x04},
	}
	copy(ev.Label[:], "Back Door")
	src.handlers[0](ev)

	msg, ok := fc.last("paradox2mqtt/event")
	require.True(t, ok)
	assert.False(t, msg.retain)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, float64(1), got["major"])
	assert.Equal(t, float64(3), got["minor"])
	assert.Equal(t, float64(2), got["partition"])
	assert.Equal(t, "Back_Door", got["label"])
	assert.Equal(t, "01020304", got["module_serial"])
	assert.Equal(t, ev.Event.String(), got["description"])
}

func TestCloseMarksOffline(t *testing.T) {
	m, fc := connected(t, &fakeSource{})
	m.Close()

	status, ok := fc.last("paradox2mqtt/status")
	require.True(t, ok)
	assert.Equal(t, "offline", string(status.payload))
	assert.True(t, fc.disconnected)
}

func TestPublishBeforeConnect(t *testing.T) {
	m := NewMQTT(&config.MQTTConfig{Prefix: "p"}, &fakeSource{}, log.Nop())
	assert.NotPanics(t, func() {
		m.Publish("p/status", "online", true)
		m.PublishLabels()
		m.Close()
	})
}

func TestBrokerURL(t *testing.T) {
	tests := []struct {
		host   string
		port   int
		secure bool
		want   string
	}{
		{"broker", 1883, false, "tcp://broker:1883"},
		{"broker", 8883, true, "ssl://broker:8883"},
		{"mqtt://broker:1884", 0, false, "tcp://broker:1884"},
		{"mqtts://broker", 0, false, "ssl://broker:8883"},
		{"mqtt://broker", 0, false, "tcp://broker:1883"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BrokerURL(tt.host, tt.port, tt.secure), tt.host)
	}
}

func TestTopics(t *testing.T) {
	topics := NewTopics("p2m")
	assert.Equal(t, "p2m/labels/partition", topics.Labels(paradox.ClassPartition))
	assert.Equal(t, "p2m/zone/salle-a-manger", topics.Entity(paradox.ClassZone, "Salle_à_manger"))
	assert.Equal(t, "p2m/event", topics.Event())
}
