package mqtt

import (
	"github.com/daemonp/paradox2mqtt/internal/panel"
	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

// Source is the panel session the bridge mirrors.
type Source interface {
	Announcement() paradox.Announcement
	AllLabels() map[paradox.EntityClass]map[int]paradox.Properties
	OnEvent(h panel.EventHandler)
}
