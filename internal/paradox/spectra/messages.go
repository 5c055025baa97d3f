package spectra

import (
	"encoding/binary"
	"fmt"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

// MaxEEPROMAddress is the first address a ReadEEPROM request cannot carry;
// higher values select the status block instead.
const MaxEEPROMAddress = 0x8000

// openExact opens frame and checks its whole leading byte.
func openExact(frame []byte, command byte) ([]byte, error) {
	p, err := paradox.Open(frame)
	if err != nil {
		return nil, err
	}
	if err := paradox.CheckByte(p, 0, command, "command"); err != nil {
		return nil, err
	}
	return p, nil
}

func openResponse(frame []byte, command byte) ([]byte, paradox.StatusFlags, error) {
	p, err := paradox.Open(frame)
	if err != nil {
		return nil, 0, err
	}
	if err := paradox.CheckNibble(p, command); err != nil {
		return nil, 0, err
	}
	return p, paradox.StatusFlags(p[0] & 0x0f), nil
}

func responseHeader(command byte, status paradox.StatusFlags) []byte {
	p := make([]byte, paradox.PayloadSize)
	p[0] = command<<4 | byte(status&0x0f)
	return p
}

// InitializeCommunication answers the panel announcement with the PC
// password.
type InitializeCommunication struct {
	ModuleAddress uint8
	ProductID     paradox.ProductID
	Firmware      paradox.Firmware
	PanelID       uint16
	PCPassword    [2]byte
	NotUsed1      uint8
	SourceMethod  SourceMethod
	UserCode      uint32
	Origin        Origin
}

// NewInitializeCommunication fills the identity fields from the panel
// announcement.
func NewInitializeCommunication(ann paradox.Announcement, password [2]byte) *InitializeCommunication {
	return &InitializeCommunication{
		ProductID:  ann.ProductID,
		Firmware:   ann.Firmware,
		PanelID:    ann.PanelID,
		PCPassword: password,
		NotUsed1:   0x19,
		Origin:     defaultOrigin(),
	}
}

func (m *InitializeCommunication) Name() string  { return "InitializeCommunication" }
func (m *InitializeCommunication) Command() byte { return 0x00 }

func (m *InitializeCommunication) MarshalBinary() ([]byte, error) {
	p := make([]byte, paradox.PayloadSize)
	p[0] = 0x00
	p[1] = m.ModuleAddress
	p[4] = byte(m.ProductID)
	p[5], p[6], p[7] = m.Firmware.Version, m.Firmware.Revision, m.Firmware.Build
	binary.BigEndian.PutUint16(p[8:10], m.PanelID)
	copy(p[10:12], m.PCPassword[:])
	p[12] = m.NotUsed1
	p[13] = byte(m.SourceMethod)
	binary.BigEndian.PutUint32(p[14:18], m.UserCode)
	m.Origin.put(p)
	return paradox.Seal(p), nil
}

func (m *InitializeCommunication) UnmarshalBinary(frame []byte) error {
	p, err := openExact(frame, 0x00)
	if err != nil {
		return err
	}
	m.ModuleAddress = p[1]
	m.ProductID = paradox.ProductID(p[4])
	m.Firmware = paradox.Firmware{Version: p[5], Revision: p[6], Build: p[7]}
	m.PanelID = binary.BigEndian.Uint16(p[8:10])
	copy(m.PCPassword[:], p[10:12])
	m.NotUsed1 = p[12]
	m.SourceMethod = SourceMethod(p[13])
	m.UserCode = binary.BigEndian.Uint32(p[14:18])
	m.Origin = readOrigin(p)
	return nil
}

// InitializeCommunicationResponse confirms a successful login. Its leading
// byte is always 0x10.
type InitializeCommunicationResponse struct {
	NEwareConnection uint16
	UserIDLow        uint8
	PartitionRights  PartitionRights
}

func (m *InitializeCommunicationResponse) Name() string  { return "InitializeCommunicationResponse" }
func (m *InitializeCommunicationResponse) Command() byte { return 0x10 }

func (m *InitializeCommunicationResponse) MarshalBinary() ([]byte, error) {
	p := make([]byte, paradox.PayloadSize)
	p[0] = 0x10
	binary.BigEndian.PutUint16(p[1:3], m.NEwareConnection)
	p[3] = m.UserIDLow
	p[4] = byte(m.PartitionRights & 0x03)
	return paradox.Seal(p), nil
}

func (m *InitializeCommunicationResponse) UnmarshalBinary(frame []byte) error {
	p, err := openExact(frame, 0x10)
	if err != nil {
		return err
	}
	m.NEwareConnection = binary.BigEndian.Uint16(p[1:3])
	m.UserIDLow = p[3]
	m.PartitionRights = PartitionRights(p[4] & 0x03)
	return nil
}

// SetTimeDate sets the panel clock.
type SetTimeDate struct {
	Time   Timestamp
	Origin Origin
}

func NewSetTimeDate(ts Timestamp) *SetTimeDate {
	return &SetTimeDate{Time: ts, Origin: defaultOrigin()}
}

func (m *SetTimeDate) Name() string  { return "SetTimeDate" }
func (m *SetTimeDate) Command() byte { return 0x30 }

func (m *SetTimeDate) MarshalBinary() ([]byte, error) {
	p := make([]byte, paradox.PayloadSize)
	p[0] = 0x30
	m.Time.put(p[4:10])
	m.Origin.put(p)
	return paradox.Seal(p), nil
}

func (m *SetTimeDate) UnmarshalBinary(frame []byte) error {
	p, err := openExact(frame, 0x30)
	if err != nil {
		return err
	}
	m.Time = readTimestamp(p[4:10])
	m.Origin = readOrigin(p)
	return nil
}

type SetTimeDateResponse struct {
	Status paradox.StatusFlags
}

func (m *SetTimeDateResponse) Name() string  { return "SetTimeDateResponse" }
func (m *SetTimeDateResponse) Command() byte { return 0x3 }

func (m *SetTimeDateResponse) MarshalBinary() ([]byte, error) {
	return paradox.Seal(responseHeader(0x3, m.Status)), nil
}

func (m *SetTimeDateResponse) UnmarshalBinary(frame []byte) error {
	_, status, err := openResponse(frame, 0x3)
	if err != nil {
		return err
	}
	m.Status = status
	return nil
}

// PerformAction asks the panel to arm, disarm, bypass or drive an output.
type PerformAction struct {
	Action   Action
	Argument ActionArgument
	Origin   Origin
}

func NewPerformAction(action Action, argument ActionArgument) *PerformAction {
	return &PerformAction{Action: action, Argument: argument, Origin: defaultOrigin()}
}

func (m *PerformAction) Name() string  { return "PerformAction" }
func (m *PerformAction) Command() byte { return 0x40 }

func (m *PerformAction) MarshalBinary() ([]byte, error) {
	p := make([]byte, paradox.PayloadSize)
	p[0] = 0x40
	p[2] = byte(m.Action)
	p[3] = byte(m.Argument)
	m.Origin.put(p)
	return paradox.Seal(p), nil
}

func (m *PerformAction) UnmarshalBinary(frame []byte) error {
	p, err := openExact(frame, 0x40)
	if err != nil {
		return err
	}
	m.Action = Action(p[2])
	m.Argument = ActionArgument(p[3])
	m.Origin = readOrigin(p)
	return nil
}

type PerformActionResponse struct {
	Status paradox.StatusFlags
	Action Action
}

func (m *PerformActionResponse) Name() string  { return "PerformActionResponse" }
func (m *PerformActionResponse) Command() byte { return 0x4 }

func (m *PerformActionResponse) MarshalBinary() ([]byte, error) {
	p := responseHeader(0x4, m.Status)
	p[2] = byte(m.Action)
	return paradox.Seal(p), nil
}

func (m *PerformActionResponse) UnmarshalBinary(frame []byte) error {
	p, status, err := openResponse(frame, 0x4)
	if err != nil {
		return err
	}
	m.Status = status
	m.Action = Action(p[2])
	return nil
}

// PanelStatus requests one of the status blocks.
type PanelStatus struct {
	Variant uint8
	Origin  Origin
}

func NewPanelStatus(variant uint8) *PanelStatus {
	return &PanelStatus{Variant: variant, Origin: defaultOrigin()}
}

func (m *PanelStatus) Name() string  { return "PanelStatus" }
func (m *PanelStatus) Command() byte { return 0x50 }

func (m *PanelStatus) MarshalBinary() ([]byte, error) {
	p := make([]byte, paradox.PayloadSize)
	p[0] = 0x50
	p[2] = 0x80
	p[3] = m.Variant
	m.Origin.put(p)
	return paradox.Seal(p), nil
}

func (m *PanelStatus) UnmarshalBinary(frame []byte) error {
	p, err := openExact(frame, 0x50)
	if err != nil {
		return err
	}
	if err := paradox.CheckByte(p, 2, 0x80, "validation"); err != nil {
		return err
	}
	m.Variant = p[3]
	m.Origin = readOrigin(p)
	return nil
}

// ReadEEPROM reads one 32 byte block of panel memory.
type ReadEEPROM struct {
	Address uint16
	Origin  Origin
}

func NewReadEEPROM(address uint16) *ReadEEPROM {
	return &ReadEEPROM{Address: address, Origin: defaultOrigin()}
}

func (m *ReadEEPROM) Name() string  { return "ReadEEPROM" }
func (m *ReadEEPROM) Command() byte { return 0x50 }

func (m *ReadEEPROM) MarshalBinary() ([]byte, error) {
	if m.Address >= MaxEEPROMAddress {
		return nil, fmt.Errorf("%w: eeprom address 0x%04x", paradox.ErrFieldRange, m.Address)
	}
	p := make([]byte, paradox.PayloadSize)
	p[0] = 0x50
	binary.BigEndian.PutUint16(p[2:4], m.Address)
	m.Origin.put(p)
	return paradox.Seal(p), nil
}

func (m *ReadEEPROM) UnmarshalBinary(frame []byte) error {
	p, err := openExact(frame, 0x50)
	if err != nil {
		return err
	}
	if p[2] >= 0x80 {
		return fmt.Errorf("%w: eeprom address 0x%02x%02x", paradox.ErrMalformedFrame, p[2], p[3])
	}
	m.Address = binary.BigEndian.Uint16(p[2:4])
	m.Origin = readOrigin(p)
	return nil
}

type ReadEEPROMResponse struct {
	Status  paradox.StatusFlags
	Address uint16
	Data    [32]byte
}

func (m *ReadEEPROMResponse) Name() string  { return "ReadEEPROMResponse" }
func (m *ReadEEPROMResponse) Command() byte { return 0x5 }

// Label returns the normalized text of the first label slot in the block.
func (m *ReadEEPROMResponse) Label() string {
	return paradox.NormalizeLabel(m.Data[:paradox.LabelSize])
}

func (m *ReadEEPROMResponse) MarshalBinary() ([]byte, error) {
	if m.Address >= MaxEEPROMAddress {
		return nil, fmt.Errorf("%w: eeprom address 0x%04x", paradox.ErrFieldRange, m.Address)
	}
	p := responseHeader(0x5, m.Status)
	binary.BigEndian.PutUint16(p[2:4], m.Address)
	copy(p[4:36], m.Data[:])
	return paradox.Seal(p), nil
}

func (m *ReadEEPROMResponse) UnmarshalBinary(frame []byte) error {
	p, status, err := openResponse(frame, 0x5)
	if err != nil {
		return err
	}
	if p[2] >= 0x80 {
		return fmt.Errorf("%w: eeprom address 0x%02x%02x", paradox.ErrMalformedFrame, p[2], p[3])
	}
	m.Status = status
	m.Address = binary.BigEndian.Uint16(p[2:4])
	copy(m.Data[:], p[4:36])
	return nil
}

// LiveEvent is pushed by the panel whenever something happens.
type LiveEvent struct {
	Status       paradox.StatusFlags
	Time         Timestamp
	Event        Event
	Partition    int
	ModuleSerial ModuleSerial
	LabelType    uint8
	Label        [16]byte
	Unknown      uint8
	Reserved     [4]byte
}

func (m *LiveEvent) Name() string  { return "LiveEvent" }
func (m *LiveEvent) Command() byte { return 0xe }

// LabelText returns the normalized label carried by the event.
func (m *LiveEvent) LabelText() string { return paradox.NormalizeLabel(m.Label[:]) }

func (m *LiveEvent) MarshalBinary() ([]byte, error) {
	if m.Partition < 1 || m.Partition > 256 {
		return nil, fmt.Errorf("%w: partition %d", paradox.ErrFieldRange, m.Partition)
	}
	p := responseHeader(0xe, m.Status)
	m.Time.put(p[1:7])
	p[7] = m.Event.Major
	p[8] = m.Event.Minor
	p[9] = byte(m.Partition - 1)
	copy(p[10:14], m.ModuleSerial[:])
	p[14] = m.LabelType
	copy(p[15:31], m.Label[:])
	p[31] = m.Unknown
	copy(p[32:36], m.Reserved[:])
	return paradox.Seal(p), nil
}

func (m *LiveEvent) UnmarshalBinary(frame []byte) error {
	p, status, err := openResponse(frame, 0xe)
	if err != nil {
		return err
	}
	m.Status = status
	m.Time = readTimestamp(p[1:7])
	m.Event = Event{Major: p[7], Minor: p[8]}
	m.Partition = int(p[9]) + 1
	copy(m.ModuleSerial[:], p[10:14])
	m.LabelType = p[14]
	copy(m.Label[:], p[15:31])
	m.Unknown = p[31]
	copy(m.Reserved[:], p[32:36])
	return nil
}

// CloseConnection ends the session.
type CloseConnection struct {
	Validation uint8
	Reason     CloseReason
	Origin     Origin
}

func NewCloseConnection() *CloseConnection {
	return &CloseConnection{Reason: ClosePanelWillDisconnect, Origin: defaultOrigin()}
}

func (m *CloseConnection) Name() string  { return "CloseConnection" }
func (m *CloseConnection) Command() byte { return 0x70 }

func (m *CloseConnection) MarshalBinary() ([]byte, error) {
	p := make([]byte, paradox.PayloadSize)
	p[0] = 0x70
	p[2] = m.Validation
	p[32] = byte(m.Reason)
	m.Origin.put(p)
	return paradox.Seal(p), nil
}

func (m *CloseConnection) UnmarshalBinary(frame []byte) error {
	p, err := openExact(frame, 0x70)
	if err != nil {
		return err
	}
	if err := paradox.CheckByte(p, 1, 0x00, "not_used0"); err != nil {
		return err
	}
	m.Validation = p[2]
	m.Reason = CloseReason(p[32])
	m.Origin = readOrigin(p)
	return nil
}

// ErrorMessage reports a refused command.
type ErrorMessage struct {
	Status paradox.StatusFlags
	Code   ErrorCode
}

func (m *ErrorMessage) Name() string  { return "ErrorMessage" }
func (m *ErrorMessage) Command() byte { return 0x7 }

func (m *ErrorMessage) Error() string { return "panel error: " + m.Code.String() }

func (m *ErrorMessage) MarshalBinary() ([]byte, error) {
	p := responseHeader(0x7, m.Status)
	p[2] = byte(m.Code)
	return paradox.Seal(p), nil
}

func (m *ErrorMessage) UnmarshalBinary(frame []byte) error {
	p, status, err := openResponse(frame, 0x7)
	if err != nil {
		return err
	}
	m.Status = status
	m.Code = ErrorCode(p[2])
	return nil
}
