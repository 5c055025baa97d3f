package spectra

import (
	"context"
	"errors"
	"fmt"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

// labelBase is the address of the first zone label.
const labelBase = 0x010

// maxCollisions bounds how many out of turn replies one block read absorbs
// before giving up.
const maxCollisions = 32

var regionSizes = []struct {
	class paradox.EntityClass
	count int
}{
	{paradox.ClassZone, 32},
	{paradox.ClassOutput, 16},
	{paradox.ClassPartition, 2},
	{paradox.ClassUser, 32},
	{paradox.ClassBus, 15},
	{paradox.ClassRepeater, 2},
	{paradox.ClassKeypad, 8},
	{paradox.ClassSite, 1},
	{paradox.ClassSiren, 4},
}

// Regions is the label memory map, in memory order. Each region starts
// where the previous one ends.
var Regions = func() []paradox.MemoryRegion {
	regions := make([]paradox.MemoryRegion, 0, len(regionSizes))
	start := uint16(labelBase)
	for _, s := range regionSizes {
		end := start + uint16(s.count*paradox.BlockSize)
		regions = append(regions, paradox.MemoryRegion{Class: s.class, Start: start, End: end})
		start = end
	}
	return regions
}()

// Region returns the memory region of class.
func Region(class paradox.EntityClass) (paradox.MemoryRegion, bool) {
	for _, r := range Regions {
		if r.Class == class {
			return r, true
		}
	}
	return paradox.MemoryRegion{}, false
}

func isEEPROMReply(frame []byte) bool {
	return len(frame) > 2 && frame[0]>>4 == 0x5 && frame[2] < 0x80
}

// LoadLabels reads the labels of one region into table, one block per
// index, stopping at the highest index in limit. A reply for another
// address is treated as a collision: it is discarded and the same block is
// requested again. On timeout the labels read so far are kept.
func (p *Panel) LoadLabels(ctx context.Context, table *paradox.LabelTable, region paradox.MemoryRegion, limit paradox.IndexLimit) error {
	if limit.Empty() {
		return nil
	}
	template := paradox.Template(region.Class)
	address, index := region.Start, 1
	collisions := 0

	for address < region.End && index <= limit.Max() {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := NewReadEEPROM(address).MarshalBinary()
		if err != nil {
			return err
		}
		p.metrics.Request("ReadEEPROM")
		reply, err := p.transport.SendWait(ctx, frame, isEEPROMReply)
		if err != nil {
			p.log.Error("Could not fully load %s labels: %v", region.Class, err)
			return fmt.Errorf("load %s labels at 0x%04x: %w", region.Class, address, err)
		}

		resp, ok := p.eepromReply(reply, address)
		if !ok {
			p.metrics.Collision(string(region.Class))
			collisions++
			if collisions > maxCollisions {
				p.log.Error("Too many collisions loading %s labels at 0x%04x", region.Class, address)
				return fmt.Errorf("load %s labels at 0x%04x: %w", region.Class, address, paradox.ErrTimeout)
			}
			continue
		}
		collisions = 0

		if label := resp.Label(); label != "" && limit.Contains(index) {
			if table.Register(index, label, template) {
				p.log.Debug("%s %d: %s", region.Class, index, label)
			}
		}
		index++
		address += paradox.BlockSize
	}
	return nil
}

// eepromReply decodes reply and reports whether it answers the read at
// address. Frames of another kind are handed to the stray handler.
func (p *Panel) eepromReply(reply []byte, address uint16) (*ReadEEPROMResponse, bool) {
	if !isEEPROMReply(reply) {
		if msg, err := p.codec.Decode(reply); err == nil {
			p.stray(msg)
		} else {
			p.log.Debug("Discarding frame during label load: %v", err)
		}
		return nil, false
	}
	resp := &ReadEEPROMResponse{}
	if err := resp.UnmarshalBinary(reply); err != nil {
		p.log.Debug("Discarding frame during label load: %v", err)
		return nil, false
	}
	if resp.Address != address {
		p.log.Debug("Fetch collision: wanted 0x%04x, got 0x%04x", address, resp.Address)
		return nil, false
	}
	return resp, true
}

// UpdateLabels synchronizes every entity class. Classes without an entry in
// limits are rebuilt over DefaultLimit; classes with one are merged into the
// existing table. A failing class does not stop the others.
func (p *Panel) UpdateLabels(ctx context.Context, labels *paradox.Labels, limits map[paradox.EntityClass]paradox.IndexLimit) error {
	p.log.Info("Updating Labels from Panel")
	var errs []error
	for _, region := range Regions {
		table := labels.Table(region.Class)
		limit, explicit := limits[region.Class]
		if !explicit {
			limit = paradox.DefaultLimit
			table.Reset()
		}
		if err := p.LoadLabels(ctx, table, region, limit); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
		p.metrics.Labels(string(region.Class), table.Len())
		p.log.Info("%s: %v", region.Class, table.Names())
	}
	return errors.Join(errs...)
}
