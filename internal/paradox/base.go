package paradox

import "encoding/binary"

// Base holds the message kinds shared by every panel family. Panel
// registries fall back to it.
var Base = NewRegistry(
	Definition{Name: "StartCommunication", New: func() Message { return NewStartCommunication() }},
	Definition{Name: "StartCommunicationResponse", New: func() Message { return &StartCommunicationResponse{} }},
)

// StartCommunication asks the panel to announce itself.
type StartCommunication struct {
	SourceID SourceID
	UserHigh uint8
	UserLow  uint8
}

func NewStartCommunication() *StartCommunication {
	return &StartCommunication{SourceID: SourceWinloadDirect}
}

func (m *StartCommunication) Name() string  { return "StartCommunication" }
func (m *StartCommunication) Command() byte { return 0x5f }

func (m *StartCommunication) MarshalBinary() ([]byte, error) {
	p := make([]byte, PayloadSize)
	p[0] = 0x5f
	p[1] = 0x20
	p[33] = byte(m.SourceID)
	p[34] = m.UserHigh
	p[35] = m.UserLow
	return Seal(p), nil
}

func (m *StartCommunication) UnmarshalBinary(frame []byte) error {
	p, err := Open(frame)
	if err != nil {
		return err
	}
	if err := CheckByte(p, 0, 0x5f, "command"); err != nil {
		return err
	}
	if err := CheckByte(p, 1, 0x20, "validation"); err != nil {
		return err
	}
	m.SourceID = SourceID(p[33])
	m.UserHigh = p[34]
	m.UserLow = p[35]
	return nil
}

// Transceiver describes the panel's onboard RF transceiver.
type Transceiver struct {
	FirmwareBuild    uint8 `json:"firmware_build"`
	Family           uint8 `json:"family"`
	FirmwareVersion  uint8 `json:"firmware_version"`
	FirmwareRevision uint8 `json:"firmware_revision"`
	NoiseFloorLevel  uint8 `json:"noise_floor_level"`
	Status           uint8 `json:"status"`
	HardwareRevision uint8 `json:"hardware_revision"`
}

// StartCommunicationResponse is the panel announcement that opens a session.
type StartCommunicationResponse struct {
	Status      StatusFlags
	NotUsed0    [3]byte
	ProductID   ProductID
	Firmware    Firmware
	PanelID     uint16
	NotUsed1    [5]byte
	Transceiver Transceiver
	NotUsed2    [14]byte
}

func (m *StartCommunicationResponse) Name() string  { return "StartCommunicationResponse" }
func (m *StartCommunicationResponse) Command() byte { return 0x0 }

// Announcement extracts the identity fields the handshake echoes back.
func (m *StartCommunicationResponse) Announcement() Announcement {
	return Announcement{ProductID: m.ProductID, Firmware: m.Firmware, PanelID: m.PanelID}
}

func (m *StartCommunicationResponse) MarshalBinary() ([]byte, error) {
	p := make([]byte, PayloadSize)
	p[0] = byte(m.Status & 0x0f)
	copy(p[1:4], m.NotUsed0[:])
	p[4] = byte(m.ProductID)
	p[5] = m.Firmware.Version
	p[6] = m.Firmware.Revision
	p[7] = m.Firmware.Build
	binary.BigEndian.PutUint16(p[8:10], m.PanelID)
	copy(p[10:15], m.NotUsed1[:])
	t := m.Transceiver
	copy(p[15:22], []byte{t.FirmwareBuild, t.Family, t.FirmwareVersion, t.FirmwareRevision,
		t.NoiseFloorLevel, t.Status, t.HardwareRevision})
	copy(p[22:36], m.NotUsed2[:])
	return Seal(p), nil
}

func (m *StartCommunicationResponse) UnmarshalBinary(frame []byte) error {
	p, err := Open(frame)
	if err != nil {
		return err
	}
	if err := CheckNibble(p, 0x0); err != nil {
		return err
	}
	m.Status = StatusFlags(p[0] & 0x0f)
	copy(m.NotUsed0[:], p[1:4])
	m.ProductID = ProductID(p[4])
	m.Firmware = Firmware{Version: p[5], Revision: p[6], Build: p[7]}
	m.PanelID = binary.BigEndian.Uint16(p[8:10])
	copy(m.NotUsed1[:], p[10:15])
	m.Transceiver = Transceiver{
		FirmwareBuild:    p[15],
		Family:           p[16],
		FirmwareVersion:  p[17],
		FirmwareRevision: p[18],
		NoiseFloorLevel:  p[19],
		Status:           p[20],
		HardwareRevision: p[21],
	}
	copy(m.NotUsed2[:], p[22:36])
	return nil
}
