package spectra

import "github.com/daemonp/paradox2mqtt/internal/paradox"

// NewRegistry returns the Spectra SP / Magellan MG message catalog layered
// over the generic paradox.Base kinds.
func NewRegistry() *paradox.Registry {
	defs := []paradox.Definition{
		{Name: "InitializeCommunication", New: func() paradox.Message {
			return &InitializeCommunication{NotUsed1: 0x19, Origin: defaultOrigin()}
		}},
		{Name: "InitializeCommunicationResponse", New: func() paradox.Message { return &InitializeCommunicationResponse{} }},
		{Name: "SetTimeDate", New: func() paradox.Message { return &SetTimeDate{Origin: defaultOrigin()} }},
		{Name: "SetTimeDateResponse", New: func() paradox.Message { return &SetTimeDateResponse{} }},
		{Name: "PerformAction", New: func() paradox.Message { return &PerformAction{Origin: defaultOrigin()} }},
		{Name: "PerformActionResponse", New: func() paradox.Message { return &PerformActionResponse{} }},
		{Name: "PanelStatus", New: func() paradox.Message { return &PanelStatus{Origin: defaultOrigin()} }},
		{Name: "ReadEEPROM", New: func() paradox.Message { return &ReadEEPROM{Origin: defaultOrigin()} }},
		{Name: "ReadEEPROMResponse", New: func() paradox.Message { return &ReadEEPROMResponse{} }},
		{Name: "LiveEvent", New: func() paradox.Message { return &LiveEvent{Partition: 1} }},
		{Name: "CloseConnection", New: func() paradox.Message { return NewCloseConnection() }},
		{Name: "ErrorMessage", New: func() paradox.Message { return &ErrorMessage{} }},
		{Name: statusName(0), New: func() paradox.Message { return &SystemStatus{} }},
		{Name: statusName(1), New: func() paradox.Message { return &SupervisionStatus{} }},
		{Name: statusName(2), New: func() paradox.Message { return &ZoneStatus{} }},
		{Name: statusName(3), New: func() paradox.Message { return &ZoneSignalStatus{} }},
		{Name: statusName(4), New: func() paradox.Message { return &ModuleSignalStatus{} }},
		{Name: statusName(5), New: func() paradox.Message { return &ExitDelayStatus{} }},
	}
	return paradox.NewRegistry(defs...).WithFallback(paradox.Base)
}
