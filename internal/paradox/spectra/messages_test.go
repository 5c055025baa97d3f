package spectra

import (
	"encoding"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

func build(t *testing.T, m encoding.BinaryMarshaler) []byte {
	t.Helper()
	frame, err := m.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, frame, paradox.FrameSize)
	return frame
}

func label16(s string) [16]byte {
	var b [16]byte
	copy(b[:], s)
	return b
}

func sampleMessages() []paradox.Message {
	return []paradox.Message{
		&InitializeCommunication{
			ModuleAddress: 0,
			ProductID:     paradox.ProductSpectraSP6000,
			Firmware:      paradox.Firmware{Version: 4, Revision: 72, Build: 1},
			PanelID:       0x1234,
			PCPassword:    [2]byte{0x12, 0x34},
			NotUsed1:      0x19,
			SourceMethod:  SourceMethodNEware,
			UserCode:      0xdeadbeef,
			Origin:        Origin{SourceID: paradox.SourceWinloadIP, UserHigh: 1, UserLow: 2},
		},
		&InitializeCommunicationResponse{NEwareConnection: 0x0102, UserIDLow: 7, PartitionRights: 0x03},
		NewSetTimeDate(Timestamp{Century: 20, Year: 24, Month: 3, Day: 9, Hour: 21, Minute: 5}),
		&SetTimeDateResponse{Status: 0x02},
		NewPerformAction(ActionStayArm, 1),
		&PerformActionResponse{Status: 0x02, Action: ActionDisarm},
		NewPanelStatus(3),
		NewReadEEPROM(0x0123),
		&ReadEEPROMResponse{Status: 0x02, Address: 0x0010, Data: [32]byte{'F', 'r', 'o', 'n', 't'}},
		&LiveEvent{
			Status:       0x02,
			Time:         Timestamp{Century: 20, Year: 23, Month: 12, Day: 31, Hour: 23, Minute: 59},
			Event:        Event{Major: 1, Minor: 4},
			Partition:    2,
			ModuleSerial: ModuleSerial{0x05, 0x00, 0xab, 0xcd},
			LabelType:    1,
			Label:        label16("Kitchen"),
			Unknown:      0,
			Reserved:     [4]byte{},
		},
		&CloseConnection{Validation: 0, Reason: CloseAuthenticationFailed, Origin: defaultOrigin()},
		&ErrorMessage{Status: 0x01, Code: ErrorInvalidPCPassword},
		&SystemStatus{
			Status:       0x02,
			Troubles:     Troubles(1)<<39 | 1,
			Time:         Timestamp{Century: 20, Year: 24, Month: 1, Day: 2, Hour: 3, Minute: 4},
			VDC:          200,
			DC:           150,
			Battery:      140,
			RFNoiseFloor: 12,
			ZoneOpen:     Bitmap{0x01, 0, 0, 0x80},
			ZoneTamper:   Bitmap{0, 0, 0, 0},
			PGMTamper:    Bitmap{0, 1},
			BusTamper:    Bitmap{0, 0},
			ZoneFire:     Bitmap{0, 0, 2, 0},
		},
		&SupervisionStatus{
			Status:                   0x02,
			ZoneRFSupervisionTrouble: Bitmap{0, 0, 0, 1},
			PGMSupervisionTrouble:    Bitmap{0, 0},
			BusSupervisionTrouble:    Bitmap{4, 0},
			ZoneRFLowBattery:         Bitmap{0, 8, 0, 0},
			Partitions:               [2]PartitionFlags{0x01000001, 0x40000000},
			KeypadSupervisionFailure: 3,
		},
		&ZoneStatus{Status: 0x02, Zones: [32]ZoneFlags{0x40, 0x08}},
		&ZoneSignalStatus{Status: 0x02, Signal: [32]uint8{9, 8, 7}},
		&ModuleSignalStatus{Status: 0x02, PGM: [16]uint8{1}, Repeater: [2]uint8{2, 3}, Keypad: [8]uint8{4}},
		&ExitDelayStatus{Status: 0x02, ExitDelay: Bitmap{0xff, 0, 0, 1}},
	}
}

func TestRoundTrip(t *testing.T) {
	codec := NewCodec(NewRegistry(), nil, nil)
	for _, want := range sampleMessages() {
		t.Run(want.Name(), func(t *testing.T) {
			got, err := codec.Decode(build(t, want))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestChecksumSensitivity(t *testing.T) {
	codec := NewCodec(NewRegistry(), nil, nil)
	for _, m := range sampleMessages() {
		frame := build(t, m)
		for i := 0; i < paradox.PayloadSize; i++ {
			for bit := 0; bit < 8; bit++ {
				flipped := append([]byte(nil), frame...)
				flipped[i] ^= 1 << uint(bit)
				_, err := codec.Decode(flipped)
				require.ErrorIsf(t, err, paradox.ErrMalformedFrame, "%s byte %d bit %d", m.Name(), i, bit)
				assert.Nil(t, codec.Parse(flipped))
			}
		}
	}
}

func TestDispatchPrecedence(t *testing.T) {
	codec := NewCodec(NewRegistry(), nil, nil)

	p := make([]byte, paradox.PayloadSize)
	p[0], p[1], p[2], p[3] = 0x50, 0x77, 0x80, 0x01
	for i := 4; i < len(p); i++ {
		p[i] = byte(i * 7)
	}
	msg, err := codec.Decode(paradox.Seal(p))
	require.NoError(t, err)
	assert.IsType(t, &PanelStatus{}, msg)

	p = make([]byte, paradox.PayloadSize)
	p[0], p[1] = 0x70, 0x00
	p[32] = byte(ClosePanelWillDisconnect)
	msg, err = codec.Decode(paradox.Seal(p))
	require.NoError(t, err)
	assert.IsType(t, &CloseConnection{}, msg)

	p = make([]byte, paradox.PayloadSize)
	p[0], p[2], p[3] = 0x52, 0x00, 0x10
	msg, err = codec.Decode(paradox.Seal(p))
	require.NoError(t, err)
	require.IsType(t, &ReadEEPROMResponse{}, msg)
	assert.Equal(t, uint16(0x0010), msg.(*ReadEEPROMResponse).Address)
}

func TestStatusVariantSelection(t *testing.T) {
	codec := NewCodec(NewRegistry(), nil, nil)

	p := make([]byte, paradox.PayloadSize)
	p[0], p[2], p[3] = 0x52, 0x80, 2
	msg, err := codec.Decode(paradox.Seal(p))
	require.NoError(t, err)
	assert.IsType(t, &ZoneStatus{}, msg)
	assert.Equal(t, "PanelStatusResponse[2]", msg.Name())

	p[3] = 6
	_, err = codec.Decode(paradox.Seal(p))
	assert.ErrorIs(t, err, paradox.ErrUnknownFrame)
	assert.Nil(t, codec.Parse(paradox.Seal(p)))
}

func TestUnknownFrame(t *testing.T) {
	codec := NewCodec(NewRegistry(), nil, nil)
	p := make([]byte, paradox.PayloadSize)
	p[0] = 0x90
	_, err := codec.Decode(paradox.Seal(p))
	assert.ErrorIs(t, err, paradox.ErrUnknownFrame)
	assert.Nil(t, codec.Parse(paradox.Seal(p)))
	assert.Nil(t, codec.Parse(nil))
	assert.Nil(t, codec.Parse([]byte{0x50}))
}

func TestConstantFieldMismatch(t *testing.T) {
	p := make([]byte, paradox.PayloadSize)
	p[0], p[1] = 0x70, 0x01
	err := (&CloseConnection{}).UnmarshalBinary(paradox.Seal(p))
	assert.ErrorIs(t, err, paradox.ErrMalformedFrame)

	p = make([]byte, paradox.PayloadSize)
	p[0], p[2], p[3] = 0x52, 0x80, 1
	err = (&ZoneStatus{}).UnmarshalBinary(paradox.Seal(p))
	assert.ErrorIs(t, err, paradox.ErrMalformedFrame)

	codec := NewCodec(NewRegistry(), nil, nil)
	for _, lead := range []byte{0x11, 0x12, 0x1f} {
		p = make([]byte, paradox.PayloadSize)
		p[0] = lead
		err = (&InitializeCommunicationResponse{}).UnmarshalBinary(paradox.Seal(p))
		assert.ErrorIsf(t, err, paradox.ErrMalformedFrame, "lead 0x%02x", lead)
		_, err = codec.Decode(paradox.Seal(p))
		assert.ErrorIsf(t, err, paradox.ErrUnknownFrame, "lead 0x%02x", lead)
	}
}

func TestReadEEPROMAddressRange(t *testing.T) {
	_, err := NewReadEEPROM(MaxEEPROMAddress).MarshalBinary()
	assert.ErrorIs(t, err, paradox.ErrFieldRange)

	frame, err := NewReadEEPROM(MaxEEPROMAddress - 1).MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, byte(0x7f), frame[2])
}

func TestRequestDefaults(t *testing.T) {
	frame := build(t, NewPanelStatus(0))
	assert.Equal(t, []byte{0x50, 0x00, 0x80, 0x00}, frame[:4])
	assert.Equal(t, []byte{0x01, 0x00, 0x00}, frame[33:36])

	frame = build(t, NewCloseConnection())
	assert.Equal(t, byte(ClosePanelWillDisconnect), frame[32])

	ann := paradox.Announcement{ProductID: paradox.ProductMagellanMG5050, Firmware: paradox.Firmware{Version: 6, Revision: 5, Build: 2}, PanelID: 0xbeef}
	frame = build(t, NewInitializeCommunication(ann, [2]byte{0xaa, 0xbb}))
	assert.Equal(t, byte(paradox.ProductMagellanMG5050), frame[4])
	assert.Equal(t, []byte{6, 5, 2, 0xbe, 0xef, 0xaa, 0xbb, 0x19}, frame[5:13])
}

func TestNewMessageFromRegistry(t *testing.T) {
	reg := NewRegistry()
	m, err := reg.New("ReadEEPROM")
	require.NoError(t, err)
	assert.Equal(t, paradox.SourceWinloadDirect, m.(*ReadEEPROM).Origin.SourceID)

	m, err = reg.New("StartCommunication")
	require.NoError(t, err)
	assert.IsType(t, &paradox.StartCommunication{}, m)

	_, err = reg.New("WriteEEPROM")
	assert.ErrorIs(t, err, paradox.ErrRegistryMiss)
}

func TestTimestamp(t *testing.T) {
	when := time.Date(2024, time.March, 9, 21, 5, 0, 0, time.UTC)
	ts := NewTimestamp(when)
	assert.Equal(t, Timestamp{Century: 20, Year: 24, Month: 3, Day: 9, Hour: 21, Minute: 5}, ts)
	assert.True(t, when.Equal(ts.Time(time.UTC)))
}

func TestLiveEventAccessors(t *testing.T) {
	ev := &LiveEvent{Status: 0x02, Partition: 1, Label: label16("Back Door")}
	frame := build(t, ev)
	assert.Equal(t, byte(0), frame[9])
	assert.Equal(t, "Back_Door", ev.LabelText())
	assert.Equal(t, "0500abcd", ModuleSerial{0x05, 0x00, 0xab, 0xcd}.String())
	assert.Equal(t, "Zone open (4)", Event{Major: 1, Minor: 4}.String())

	_, err := (&LiveEvent{Partition: 0}).MarshalBinary()
	assert.ErrorIs(t, err, paradox.ErrFieldRange)
}
