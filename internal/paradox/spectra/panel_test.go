package spectra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

func TestStartCommunication(t *testing.T) {
	ann := &paradox.StartCommunicationResponse{
		Status:    0x02,
		ProductID: paradox.ProductMagellanMG5050,
		Firmware:  paradox.Firmware{Version: 6, Revision: 80, Build: 1},
		PanelID:   0x0501,
	}
	tr := &scriptedTransport{}
	tr.push(build(t, ann), nil)

	got, err := NewPanel(tr).StartCommunication(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ann.Announcement(), got.Announcement())

	sent := tr.requests()
	require.Len(t, sent, 1)
	assert.Equal(t, byte(0x5f), sent[0][0])
}

func TestRequestStatus(t *testing.T) {
	tr := &scriptedTransport{}
	tr.push(build(t, &ZoneStatus{Status: 0x02, Zones: [32]ZoneFlags{0x40}}), nil)

	resp, err := NewPanel(tr).RequestStatus(context.Background(), 2)
	require.NoError(t, err)
	require.IsType(t, &ZoneStatus{}, resp)
	assert.True(t, resp.(*ZoneStatus).Zone(1).Alarm())
	assert.Equal(t, uint8(2), resp.Variant())

	_, err = NewPanel(tr).RequestStatus(context.Background(), 6)
	assert.ErrorIs(t, err, paradox.ErrFieldRange)
}

func TestSetTimeDate(t *testing.T) {
	tr := &scriptedTransport{}
	tr.push(build(t, &SetTimeDateResponse{}), nil)

	when := time.Date(2025, time.July, 4, 12, 30, 0, 0, time.UTC)
	require.NoError(t, NewPanel(tr).SetTimeDate(context.Background(), when))

	req := &SetTimeDate{}
	require.NoError(t, req.UnmarshalBinary(tr.requests()[0]))
	assert.Equal(t, NewTimestamp(when), req.Time)
}

func TestPerformActionPanelError(t *testing.T) {
	tr := &scriptedTransport{}
	tr.push(build(t, &ErrorMessage{Status: 0x02, Code: ErrorPartitionInCodeLockout}), nil)

	_, err := NewPanel(tr).PerformAction(context.Background(), ActionFullArm, 0)
	assert.ErrorIs(t, err, paradox.ErrUnexpectedReply)
	assert.Contains(t, err.Error(), "partition_in_code_lockout")
}

func TestPerformAction(t *testing.T) {
	tr := &scriptedTransport{}
	tr.push(build(t, &PerformActionResponse{Action: ActionDisarm}), nil)

	resp, err := NewPanel(tr).PerformAction(context.Background(), ActionDisarm, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionDisarm, resp.Action)
}

func TestCloseConnection(t *testing.T) {
	tr := &scriptedTransport{}
	require.NoError(t, NewPanel(tr).CloseConnection(context.Background()))
	sent := tr.requests()
	require.Len(t, sent, 1)

	msg := NewPanel(tr).Parse(sent[0])
	require.IsType(t, &CloseConnection{}, msg)
	assert.Equal(t, ClosePanelWillDisconnect, msg.(*CloseConnection).Reason)
}

func TestCustomRegistryOverridesKind(t *testing.T) {
	custom := paradox.NewRegistry(paradox.Definition{
		Name: "ReadEEPROM",
		New:  func() paradox.Message { return &ReadEEPROM{Origin: Origin{SourceID: paradox.SourceNEwareIP}} },
	}).WithFallback(NewRegistry())

	p := NewPanel(&scriptedTransport{}, WithRegistry(custom))
	m, err := p.NewMessage("ReadEEPROM")
	require.NoError(t, err)
	assert.Equal(t, paradox.SourceNEwareIP, m.(*ReadEEPROM).Origin.SourceID)

	m, err = p.NewMessage("LiveEvent")
	require.NoError(t, err)
	assert.IsType(t, &LiveEvent{}, m)

	_, err = p.NewMessage("Nope")
	assert.ErrorIs(t, err, paradox.ErrRegistryMiss)
}
