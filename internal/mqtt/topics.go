package mqtt

import (
	"fmt"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
	"github.com/daemonp/paradox2mqtt/internal/util"
)

type Topics struct {
	prefix string
}

func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

func (t *Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix)
}

// Panel carries the identity the panel announced.
func (t *Topics) Panel() string {
	return fmt.Sprintf("%s/panel", t.prefix)
}

// Labels carries the whole label table of one entity class.
func (t *Topics) Labels(class paradox.EntityClass) string {
	return fmt.Sprintf("%s/labels/%s", t.prefix, class)
}

// Entity carries the properties of one labeled entity.
func (t *Topics) Entity(class paradox.EntityClass, label string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix, class, util.Slugify(label))
}

func (t *Topics) Event() string {
	return fmt.Sprintf("%s/event", t.prefix)
}
