package spectra

import (
	"fmt"
	"strings"
)

// enumName pairs a wire value with one of its names. Several names may share
// a value; they are aliases, listed in declaration order.
type enumName[T ~uint8] struct {
	value T
	name  string
}

func namesOf[T ~uint8](table []enumName[T], v T) []string {
	var names []string
	for _, e := range table {
		if e.value == v {
			names = append(names, e.name)
		}
	}
	return names
}

func nameOf[T ~uint8](table []enumName[T], v T, kind string) string {
	if names := namesOf(table, v); len(names) > 0 {
		return names[0]
	}
	return fmt.Sprintf("%s(0x%02x)", kind, uint8(v))
}

// SourceMethod tells the panel which PC software is connecting.
type SourceMethod uint8

const (
	SourceMethodWinload SourceMethod = 0x00
	SourceMethodNEware  SourceMethod = 0x55
)

var sourceMethodNames = []enumName[SourceMethod]{
	{SourceMethodWinload, "Winload_Connection"},
	{SourceMethodNEware, "NEware_Connection"},
}

func (s SourceMethod) String() string { return nameOf(sourceMethodNames, s, "SourceMethod") }

// Action is the operation requested by PerformAction.
type Action uint8

const (
	ActionStayArm                Action = 0x01
	ActionStayArm1               Action = 0x02
	ActionSleepArm               Action = 0x03
	ActionFullArm                Action = 0x04
	ActionDisarm                 Action = 0x05
	ActionStayArmStayD           Action = 0x06
	ActionSleepArmStayD          Action = 0x07
	ActionDisarmBothDisableStayD Action = 0x08
	ActionBypass                 Action = 0x10
	ActionBeep                   Action = 0x10
	ActionPGMOnOverride          Action = 0x30
	ActionPGMOffOverride         Action = 0x31
	ActionPGMOn                  Action = 0x32
	ActionPGMOff                 Action = 0x33
	ActionReloadRAM              Action = 0x80
	ActionBusScan                Action = 0x85
	ActionFutureUse              Action = 0x90
)

var actionNames = []enumName[Action]{
	{ActionStayArm, "Stay_Arm"},
	{ActionStayArm1, "Stay_Arm1"},
	{ActionSleepArm, "Sleep_Arm"},
	{ActionFullArm, "Full_Arm"},
	{ActionDisarm, "Disarm"},
	{ActionStayArmStayD, "Stay_Arm_StayD"},
	{ActionSleepArmStayD, "Sleep_Arm_StayD"},
	{ActionDisarmBothDisableStayD, "Disarm_Both_Disable_StayD"},
	{ActionBypass, "Bypass"},
	{ActionBeep, "Beep"},
	{ActionPGMOnOverride, "PGM_On_Override"},
	{ActionPGMOffOverride, "PGM_Off_Override"},
	{ActionPGMOn, "PGM_On"},
	{ActionPGMOff, "PGM_Off"},
	{ActionReloadRAM, "Reload_RAM"},
	{ActionBusScan, "Bus_Scan"},
	{ActionFutureUse, "Future_Use"},
}

func (a Action) String() string { return nameOf(actionNames, a, "Action") }

// Names returns every alias of the action value.
func (a Action) Names() []string { return namesOf(actionNames, a) }

// ParseAction resolves an action by any of its names, case-insensitively.
func ParseAction(name string) (Action, error) {
	for _, e := range actionNames {
		if strings.EqualFold(e.name, name) {
			return e.value, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// ActionArgument qualifies a PerformAction request. Beep actions use the
// named values; bypass and PGM actions carry an entity number.
type ActionArgument uint8

const (
	ArgumentOneBeep    ActionArgument = 0x04
	ArgumentFailBeep   ActionArgument = 0x08
	ArgumentBeepTwice  ActionArgument = 0x0c
	ArgumentAcceptBeep ActionArgument = 0x10
)

var argumentNames = []enumName[ActionArgument]{
	{ArgumentOneBeep, "One_Beep"},
	{ArgumentFailBeep, "Fail_Beep"},
	{ArgumentBeepTwice, "Beep_Twice"},
	{ArgumentAcceptBeep, "Accept_Beep"},
}

func (a ActionArgument) String() string { return nameOf(argumentNames, a, "Argument") }

// CloseReason is carried by CloseConnection.
type CloseReason uint8

const (
	CloseAuthenticationFailed CloseReason = 0x12
	ClosePanelWillDisconnect  CloseReason = 0x05
)

var closeReasonNames = []enumName[CloseReason]{
	{CloseAuthenticationFailed, "authentication_failed"},
	{ClosePanelWillDisconnect, "panel_will_disconnect"},
}

func (c CloseReason) String() string { return nameOf(closeReasonNames, c, "CloseReason") }

// ErrorCode is carried by ErrorMessage.
type ErrorCode uint8

const (
	ErrorRequestedCommandFailed ErrorCode = 0x00
	ErrorInvalidUserCode        ErrorCode = 0x01
	ErrorPartitionInCodeLockout ErrorCode = 0x02
	ErrorPanelWillDisconnect    ErrorCode = 0x05
	ErrorPanelNotConnected      ErrorCode = 0x10
	ErrorPanelAlreadyConnected  ErrorCode = 0x11
	ErrorInvalidPCPassword      ErrorCode = 0x12
	ErrorWinloadOnPhoneLine     ErrorCode = 0x13
	ErrorInvalidModuleAddress   ErrorCode = 0x14
	ErrorCannotWriteInRAM       ErrorCode = 0x15
	ErrorUpgradeRequestFail     ErrorCode = 0x16
	ErrorRecordNumberOutOfRange ErrorCode = 0x17
	ErrorInvalidRecordType      ErrorCode = 0x19
	ErrorMultibusNotSupported   ErrorCode = 0x1a
	ErrorIncorrectNumberOfUsers ErrorCode = 0x1b
	ErrorInvalidLabelNumber     ErrorCode = 0x1c
)

var errorCodeNames = []enumName[ErrorCode]{
	{ErrorRequestedCommandFailed, "requested_command_failed"},
	{ErrorInvalidUserCode, "invalid_user_code"},
	{ErrorPartitionInCodeLockout, "partition_in_code_lockout"},
	{ErrorPanelWillDisconnect, "panel_will_disconnect"},
	{ErrorPanelNotConnected, "panel_not_connected"},
	{ErrorPanelAlreadyConnected, "panel_already_connected"},
	{ErrorInvalidPCPassword, "invalid_pc_password"},
	{ErrorWinloadOnPhoneLine, "winload_on_phone_line"},
	{ErrorInvalidModuleAddress, "invalid_module_address"},
	{ErrorCannotWriteInRAM, "cannot_write_in_ram"},
	{ErrorUpgradeRequestFail, "upgrade_request_fail"},
	{ErrorRecordNumberOutOfRange, "record_number_out_of_range"},
	{ErrorInvalidRecordType, "invalid_record_type"},
	{ErrorMultibusNotSupported, "multibus_not_supported"},
	{ErrorIncorrectNumberOfUsers, "incorrect_number_of_users"},
	{ErrorInvalidLabelNumber, "invalid_label_number"},
}

func (e ErrorCode) String() string { return nameOf(errorCodeNames, e, "ErrorCode") }

// eventGroups describes live event major codes.
var eventGroups = map[uint8]string{
	0:  "Zone OK",
	1:  "Zone open",
	2:  "Partition status",
	3:  "Bell status",
	5:  "Non-reportable event",
	6:  "Non-reportable event",
	8:  "Button pressed on remote (B)",
	9:  "Button pressed on remote (C)",
	10: "Button pressed on remote (D)",
	11: "Button pressed on remote (E)",
	12: "Cold start wireless zone",
	13: "Cold start wireless module",
	14: "Bypass programming",
	15: "User code activated output",
	16: "Wireless smoke maintenance signal",
	17: "Delay zone alarm transmission",
	29: "Arming with user",
	30: "Special arming",
	31: "Disarming with user",
	32: "Disarming after alarm with user",
	33: "Alarm cancelled with user",
	34: "Special disarming",
	35: "Zone bypassed",
	36: "Zone in alarm",
	37: "Fire alarm",
	38: "Zone alarm restore",
	39: "Fire alarm restore",
	40: "Special alarm",
	41: "Zone shutdown",
	42: "Zone tampered",
	43: "Zone tamper restore",
	44: "New trouble",
	45: "Trouble restored",
	46: "Module new trouble",
	47: "Module trouble restored",
	48: "Special",
	49: "Low battery on zone",
	50: "Low battery on zone restore",
	51: "Zone supervision trouble",
	52: "Zone supervision restore",
	53: "Wireless module supervision trouble",
	54: "Wireless module supervision restore",
	55: "Wireless module tamper trouble",
	56: "Wireless module tamper restore",
	57: "Non-medical alarm",
	58: "Zone forced",
	59: "Zone included",
	64: "System status",
}
