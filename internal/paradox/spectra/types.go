package spectra

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

// Origin is the request trailer identifying the sender and user.
type Origin struct {
	SourceID paradox.SourceID `json:"source_id"`
	UserHigh uint8            `json:"user_high"`
	UserLow  uint8            `json:"user_low"`
}

func defaultOrigin() Origin {
	return Origin{SourceID: paradox.SourceWinloadDirect}
}

func (o Origin) put(p []byte) {
	p[33] = byte(o.SourceID)
	p[34] = o.UserHigh
	p[35] = o.UserLow
}

func readOrigin(p []byte) Origin {
	return Origin{SourceID: paradox.SourceID(p[33]), UserHigh: p[34], UserLow: p[35]}
}

// Timestamp is the panel clock as sent on the wire.
type Timestamp struct {
	Century uint8 `json:"century"`
	Year    uint8 `json:"year"`
	Month   uint8 `json:"month"`
	Day     uint8 `json:"day"`
	Hour    uint8 `json:"hour"`
	Minute  uint8 `json:"minute"`
}

// NewTimestamp converts t to panel clock fields.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{
		Century: uint8(t.Year() / 100),
		Year:    uint8(t.Year() % 100),
		Month:   uint8(t.Month()),
		Day:     uint8(t.Day()),
		Hour:    uint8(t.Hour()),
		Minute:  uint8(t.Minute()),
	}
}

// Time returns the timestamp in loc.
func (ts Timestamp) Time(loc *time.Location) time.Time {
	return time.Date(int(ts.Century)*100+int(ts.Year), time.Month(ts.Month), int(ts.Day),
		int(ts.Hour), int(ts.Minute), 0, 0, loc)
}

func (ts Timestamp) put(p []byte) {
	copy(p, []byte{ts.Century, ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute})
}

func readTimestamp(p []byte) Timestamp {
	return Timestamp{Century: p[0], Year: p[1], Month: p[2], Day: p[3], Hour: p[4], Minute: p[5]}
}

// Bitmap is a per-entity flag field, least significant bit first in each byte.
type Bitmap []byte

// Bit reports the flag of the 1-based entity n.
func (b Bitmap) Bit(n int) bool {
	n--
	if n < 0 || n/8 >= len(b) {
		return false
	}
	return b[n/8]>>(uint(n)%8)&1 == 1
}

// Set returns the 1-based numbers of every raised flag.
func (b Bitmap) Set() []int {
	var out []int
	for n := 1; n <= len(b)*8; n++ {
		if b.Bit(n) {
			out = append(out, n)
		}
	}
	return out
}

func readBitmap(p []byte) Bitmap {
	return append(Bitmap(nil), p...)
}

// ZoneFlags is the status byte of one zone.
type ZoneFlags uint8

func (z ZoneFlags) WasInAlarm() bool       { return z&0x80 != 0 }
func (z ZoneFlags) Alarm() bool            { return z&0x40 != 0 }
func (z ZoneFlags) FireDelay() bool        { return z&0x30 == 0x30 }
func (z ZoneFlags) EntryDelay() bool       { return z&0x10 != 0 }
func (z ZoneFlags) IntellizoneDelay() bool { return z&0x20 != 0 }
func (z ZoneFlags) NoDelay() bool          { return z&0x30 == 0 }
func (z ZoneFlags) Bypassed() bool         { return z&0x08 != 0 }
func (z ZoneFlags) Shutdown() bool         { return z&0x04 != 0 }
func (z ZoneFlags) InTxDelay() bool        { return z&0x02 != 0 }
func (z ZoneFlags) WasBypassed() bool      { return z&0x01 != 0 }

// PartitionFlags is the 4 byte status of one partition, first wire byte in
// the most significant position.
type PartitionFlags uint32

func (f PartitionFlags) bit(byteIndex, mask uint32) bool {
	return f>>(24-8*byteIndex)&PartitionFlags(mask) != 0
}

func (f PartitionFlags) Alarm() bool {
	return f.bit(0, 0xf0) || f.bit(2, 0x80)
}
func (f PartitionFlags) PulseFireAlarm() bool            { return f.bit(0, 0x80) }
func (f PartitionFlags) AudibleAlarm() bool              { return f.bit(0, 0x40) }
func (f PartitionFlags) SilentAlarm() bool               { return f.bit(0, 0x20) }
func (f PartitionFlags) StrobeAlarm() bool               { return f.bit(0, 0x10) }
func (f PartitionFlags) StayArm() bool                   { return f.bit(0, 0x04) }
func (f PartitionFlags) SleepArm() bool                  { return f.bit(0, 0x02) }
func (f PartitionFlags) Arm() bool                       { return f.bit(0, 0x01) }
func (f PartitionFlags) BellActivated() bool             { return f.bit(1, 0x80) }
func (f PartitionFlags) AutoArmingEngaged() bool         { return f.bit(1, 0x40) }
func (f PartitionFlags) RecentClosingDelay() bool        { return f.bit(1, 0x20) }
func (f PartitionFlags) IntellizoneDelay() bool          { return f.bit(1, 0x10) }
func (f PartitionFlags) ZoneBypassed() bool              { return f.bit(1, 0x08) }
func (f PartitionFlags) AlarmsInMemory() bool            { return f.bit(1, 0x04) }
func (f PartitionFlags) EntryDelay() bool                { return f.bit(1, 0x02) }
func (f PartitionFlags) ExitDelay() bool                 { return f.bit(1, 0x01) }
func (f PartitionFlags) ParamedicAlarm() bool            { return f.bit(2, 0x80) }
func (f PartitionFlags) ArmWithRemote() bool             { return f.bit(2, 0x20) }
func (f PartitionFlags) TransmissionDelayFinished() bool { return f.bit(2, 0x10) }
func (f PartitionFlags) BellDelayFinished() bool         { return f.bit(2, 0x08) }
func (f PartitionFlags) EntryDelayFinished() bool        { return f.bit(2, 0x04) }
func (f PartitionFlags) ExitDelayFinished() bool         { return f.bit(2, 0x02) }
func (f PartitionFlags) IntellizoneDelayFinished() bool  { return f.bit(2, 0x01) }
func (f PartitionFlags) WaitWindow() bool                { return f.bit(3, 0x40) }
func (f PartitionFlags) InRemoteDelay() bool             { return f.bit(3, 0x10) }
func (f PartitionFlags) StayDModeActive() bool           { return f.bit(3, 0x04) }
func (f PartitionFlags) ForceArm() bool                  { return f.bit(3, 0x02) }
func (f PartitionFlags) Ready() bool                     { return f.bit(3, 0x01) }

// PartitionRights lists the partitions the logged in user may access.
type PartitionRights uint8

func (r PartitionRights) Partition1() bool { return r&0x01 != 0 }
func (r PartitionRights) Partition2() bool { return r&0x02 != 0 }

// Troubles is the 40 bit system trouble field, first wire bit in bit 39.
type Troubles uint64

var troubleNames = [40]string{
	0: "timer_loss", 1: "fire_loop", 2: "module_tamper", 3: "zone_tamper",
	4: "communication", 5: "bell", 6: "power", 7: "rf_low_battery",
	8: "rf_interference", 14: "module_supervision", 15: "zone_supervision",
	17: "wireless_repeater_battery", 18: "wireless_repeater_ac_loss",
	19: "wireless_keypad_battery", 20: "wireless_keypad_ac",
	21: "auxiliary_output_overload", 22: "ac_failure", 23: "low_battery",
	30: "bell_output_overload", 31: "bell_output_disconnected",
	34: "computer_fail_to_communicate", 35: "voice_fail_to_communicate",
	36: "pager_fail_to_communicate", 37: "central_2_reporting_ftc_indicator",
	38: "central_1_reporting_ftc_indicator", 39: "telephone_line",
}

// Bit reports wire bit n, counted from the first transmitted bit.
func (t Troubles) Bit(n int) bool {
	if n < 0 || n >= 40 {
		return false
	}
	return t>>(39-uint(n))&1 == 1
}

func (t Troubles) TimerLoss() bool        { return t.Bit(0) }
func (t Troubles) FireLoop() bool         { return t.Bit(1) }
func (t Troubles) ModuleTamper() bool     { return t.Bit(2) }
func (t Troubles) ZoneTamper() bool       { return t.Bit(3) }
func (t Troubles) Communication() bool    { return t.Bit(4) }
func (t Troubles) Bell() bool             { return t.Bit(5) }
func (t Troubles) Power() bool            { return t.Bit(6) }
func (t Troubles) RFLowBattery() bool     { return t.Bit(7) }
func (t Troubles) RFInterference() bool   { return t.Bit(8) }
func (t Troubles) ACFailure() bool        { return t.Bit(22) }
func (t Troubles) LowBattery() bool       { return t.Bit(23) }
func (t Troubles) TelephoneLine() bool    { return t.Bit(39) }
func (t Troubles) BellDisconnected() bool { return t.Bit(31) }

// Active returns the names of every raised trouble.
func (t Troubles) Active() []string {
	var out []string
	for n, name := range troubleNames {
		if name != "" && t.Bit(n) {
			out = append(out, name)
		}
	}
	return out
}

func readTroubles(p []byte) Troubles {
	var t Troubles
	for _, b := range p[:5] {
		t = t<<8 | Troubles(b)
	}
	return t
}

func (t Troubles) put(p []byte) {
	for i := 0; i < 5; i++ {
		p[i] = byte(t >> (8 * uint(4-i)))
	}
}

// ModuleSerial is the serial number of the module that raised an event.
type ModuleSerial [4]byte

func (s ModuleSerial) String() string { return hex.EncodeToString(s[:]) }

func (s ModuleSerial) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Event identifies a live event by group and sub-group.
type Event struct {
	Major uint8 `json:"major"`
	Minor uint8 `json:"minor"`
}

func (e Event) String() string {
	if d, ok := eventGroups[e.Major]; ok {
		return fmt.Sprintf("%s (%d)", d, e.Minor)
	}
	return fmt.Sprintf("Event group %d (%d)", e.Major, e.Minor)
}
