package spectra

import (
	"encoding/binary"
	"fmt"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

// StatusVariants is the number of status blocks a panel serves.
const StatusVariants = 6

// StatusResponse is any of the PanelStatusResponse variants.
type StatusResponse interface {
	paradox.Message
	Variant() uint8
}

func statusName(variant uint8) string {
	return fmt.Sprintf("PanelStatusResponse[%d]", variant)
}

func statusHeader(status paradox.StatusFlags, variant uint8) []byte {
	p := responseHeader(0x5, status)
	p[2] = 0x80
	p[3] = variant
	return p
}

func openStatus(frame []byte, variant uint8) ([]byte, paradox.StatusFlags, error) {
	p, status, err := openResponse(frame, 0x5)
	if err != nil {
		return nil, 0, err
	}
	if err := paradox.CheckByte(p, 2, 0x80, "validation"); err != nil {
		return nil, 0, err
	}
	if err := paradox.CheckByte(p, 3, variant, "status_request"); err != nil {
		return nil, 0, err
	}
	return p, status, nil
}

func putBitmap(dst []byte, b Bitmap) { copy(dst, b) }

// SystemStatus is status block 0: troubles, clock, power and zone bitmaps.
type SystemStatus struct {
	Status       paradox.StatusFlags
	Troubles     Troubles
	Time         Timestamp
	VDC          uint8
	DC           uint8
	Battery      uint8
	RFNoiseFloor uint8
	ZoneOpen     Bitmap
	ZoneTamper   Bitmap
	PGMTamper    Bitmap
	BusTamper    Bitmap
	ZoneFire     Bitmap
	NotUsed      uint8
}

func (m *SystemStatus) Name() string   { return statusName(0) }
func (m *SystemStatus) Command() byte  { return 0x5 }
func (m *SystemStatus) Variant() uint8 { return 0 }

// VDCVolts converts the raw input voltage reading.
func (m *SystemStatus) VDCVolts() float64 {
	return float64(m.VDC)*(20.3-1.4)/255.0 + 1.4
}

// DCVolts converts the raw DC output reading.
func (m *SystemStatus) DCVolts() float64 { return float64(m.DC) * 22.8 / 255.0 }

// BatteryVolts converts the raw battery reading.
func (m *SystemStatus) BatteryVolts() float64 { return float64(m.Battery) * 22.8 / 255.0 }

func (m *SystemStatus) MarshalBinary() ([]byte, error) {
	p := statusHeader(m.Status, 0)
	m.Troubles.put(p[4:9])
	m.Time.put(p[9:15])
	p[15], p[16], p[17], p[18] = m.VDC, m.DC, m.Battery, m.RFNoiseFloor
	putBitmap(p[19:23], m.ZoneOpen)
	putBitmap(p[23:27], m.ZoneTamper)
	putBitmap(p[27:29], m.PGMTamper)
	putBitmap(p[29:31], m.BusTamper)
	putBitmap(p[31:35], m.ZoneFire)
	p[35] = m.NotUsed
	return paradox.Seal(p), nil
}

func (m *SystemStatus) UnmarshalBinary(frame []byte) error {
	p, status, err := openStatus(frame, 0)
	if err != nil {
		return err
	}
	m.Status = status
	m.Troubles = readTroubles(p[4:9])
	m.Time = readTimestamp(p[9:15])
	m.VDC, m.DC, m.Battery, m.RFNoiseFloor = p[15], p[16], p[17], p[18]
	m.ZoneOpen = readBitmap(p[19:23])
	m.ZoneTamper = readBitmap(p[23:27])
	m.PGMTamper = readBitmap(p[27:29])
	m.BusTamper = readBitmap(p[29:31])
	m.ZoneFire = readBitmap(p[31:35])
	m.NotUsed = p[35]
	return nil
}

// SupervisionStatus is status block 1: supervision, partitions and wireless
// device health.
type SupervisionStatus struct {
	Status                   paradox.StatusFlags
	ZoneRFSupervisionTrouble Bitmap
	PGMSupervisionTrouble    Bitmap
	BusSupervisionTrouble    Bitmap
	RepeaterSupervision      uint8
	ZoneRFLowBattery         Bitmap
	Partitions               [2]PartitionFlags
	RepeaterACLoss           uint8
	RepeaterBatteryFailure   uint8
	KeypadACLoss             uint8
	KeypadBatteryFailure     uint8
	KeypadSupervisionFailure uint8
	NotUsed                  [6]byte
}

func (m *SupervisionStatus) Name() string   { return statusName(1) }
func (m *SupervisionStatus) Command() byte  { return 0x5 }
func (m *SupervisionStatus) Variant() uint8 { return 1 }

func (m *SupervisionStatus) MarshalBinary() ([]byte, error) {
	p := statusHeader(m.Status, 1)
	putBitmap(p[4:8], m.ZoneRFSupervisionTrouble)
	putBitmap(p[8:10], m.PGMSupervisionTrouble)
	putBitmap(p[10:12], m.BusSupervisionTrouble)
	p[12] = m.RepeaterSupervision
	putBitmap(p[13:17], m.ZoneRFLowBattery)
	binary.BigEndian.PutUint32(p[17:21], uint32(m.Partitions[0]))
	binary.BigEndian.PutUint32(p[21:25], uint32(m.Partitions[1]))
	p[25], p[26] = m.RepeaterACLoss, m.RepeaterBatteryFailure
	p[27], p[28] = m.KeypadACLoss, m.KeypadBatteryFailure
	p[29] = m.KeypadSupervisionFailure
	copy(p[30:36], m.NotUsed[:])
	return paradox.Seal(p), nil
}

func (m *SupervisionStatus) UnmarshalBinary(frame []byte) error {
	p, status, err := openStatus(frame, 1)
	if err != nil {
		return err
	}
	m.Status = status
	m.ZoneRFSupervisionTrouble = readBitmap(p[4:8])
	m.PGMSupervisionTrouble = readBitmap(p[8:10])
	m.BusSupervisionTrouble = readBitmap(p[10:12])
	m.RepeaterSupervision = p[12]
	m.ZoneRFLowBattery = readBitmap(p[13:17])
	m.Partitions[0] = PartitionFlags(binary.BigEndian.Uint32(p[17:21]))
	m.Partitions[1] = PartitionFlags(binary.BigEndian.Uint32(p[21:25]))
	m.RepeaterACLoss, m.RepeaterBatteryFailure = p[25], p[26]
	m.KeypadACLoss, m.KeypadBatteryFailure = p[27], p[28]
	m.KeypadSupervisionFailure = p[29]
	copy(m.NotUsed[:], p[30:36])
	return nil
}

// ZoneStatus is status block 2: one flag byte per zone.
type ZoneStatus struct {
	Status paradox.StatusFlags
	Zones  [32]ZoneFlags
}

func (m *ZoneStatus) Name() string   { return statusName(2) }
func (m *ZoneStatus) Command() byte  { return 0x5 }
func (m *ZoneStatus) Variant() uint8 { return 2 }

// Zone returns the flags of the 1-based zone n.
func (m *ZoneStatus) Zone(n int) ZoneFlags {
	if n < 1 || n > len(m.Zones) {
		return 0
	}
	return m.Zones[n-1]
}

func (m *ZoneStatus) MarshalBinary() ([]byte, error) {
	p := statusHeader(m.Status, 2)
	for i, z := range m.Zones {
		p[4+i] = byte(z)
	}
	return paradox.Seal(p), nil
}

func (m *ZoneStatus) UnmarshalBinary(frame []byte) error {
	p, status, err := openStatus(frame, 2)
	if err != nil {
		return err
	}
	m.Status = status
	for i := range m.Zones {
		m.Zones[i] = ZoneFlags(p[4+i])
	}
	return nil
}

// ZoneSignalStatus is status block 3: wireless signal strength per zone.
type ZoneSignalStatus struct {
	Status paradox.StatusFlags
	Signal [32]uint8
}

func (m *ZoneSignalStatus) Name() string   { return statusName(3) }
func (m *ZoneSignalStatus) Command() byte  { return 0x5 }
func (m *ZoneSignalStatus) Variant() uint8 { return 3 }

func (m *ZoneSignalStatus) MarshalBinary() ([]byte, error) {
	p := statusHeader(m.Status, 3)
	copy(p[4:36], m.Signal[:])
	return paradox.Seal(p), nil
}

func (m *ZoneSignalStatus) UnmarshalBinary(frame []byte) error {
	p, status, err := openStatus(frame, 3)
	if err != nil {
		return err
	}
	m.Status = status
	copy(m.Signal[:], p[4:36])
	return nil
}

// ModuleSignalStatus is status block 4: signal strength of outputs,
// repeaters and keypads.
type ModuleSignalStatus struct {
	Status   paradox.StatusFlags
	PGM      [16]uint8
	Repeater [2]uint8
	Keypad   [8]uint8
	NotUsed  [6]byte
}

func (m *ModuleSignalStatus) Name() string   { return statusName(4) }
func (m *ModuleSignalStatus) Command() byte  { return 0x5 }
func (m *ModuleSignalStatus) Variant() uint8 { return 4 }

func (m *ModuleSignalStatus) MarshalBinary() ([]byte, error) {
	p := statusHeader(m.Status, 4)
	copy(p[4:20], m.PGM[:])
	copy(p[20:22], m.Repeater[:])
	copy(p[22:30], m.Keypad[:])
	copy(p[30:36], m.NotUsed[:])
	return paradox.Seal(p), nil
}

func (m *ModuleSignalStatus) UnmarshalBinary(frame []byte) error {
	p, status, err := openStatus(frame, 4)
	if err != nil {
		return err
	}
	m.Status = status
	copy(m.PGM[:], p[4:20])
	copy(m.Repeater[:], p[20:22])
	copy(m.Keypad[:], p[22:30])
	copy(m.NotUsed[:], p[30:36])
	return nil
}

// ExitDelayStatus is status block 5: zones currently in exit delay.
type ExitDelayStatus struct {
	Status    paradox.StatusFlags
	ExitDelay Bitmap
	NotUsed   [28]byte
}

func (m *ExitDelayStatus) Name() string   { return statusName(5) }
func (m *ExitDelayStatus) Command() byte  { return 0x5 }
func (m *ExitDelayStatus) Variant() uint8 { return 5 }

func (m *ExitDelayStatus) MarshalBinary() ([]byte, error) {
	p := statusHeader(m.Status, 5)
	putBitmap(p[4:8], m.ExitDelay)
	copy(p[8:36], m.NotUsed[:])
	return paradox.Seal(p), nil
}

func (m *ExitDelayStatus) UnmarshalBinary(frame []byte) error {
	p, status, err := openStatus(frame, 5)
	if err != nil {
		return err
	}
	m.Status = status
	m.ExitDelay = readBitmap(p[4:8])
	copy(m.NotUsed[:], p[8:36])
	return nil
}
