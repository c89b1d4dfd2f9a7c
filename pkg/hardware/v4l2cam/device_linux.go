//go:build linux

package v4l2cam

import (
	"fmt"

	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"
)

// go4vlDevice adapts a go4vl device to controlDevice.
type go4vlDevice struct {
	dev *device.Device
}

func openDevice(path string) (controlDevice, error) {
	dev, err := device.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &go4vlDevice{dev: dev}, nil
}

func (d *go4vlDevice) GetControl(id uint32) (Control, error) {
	ctrl, err := d.dev.GetControl(v4l2.CtrlID(id))
	if err != nil {
		return Control{}, fmt.Errorf("%w: %#x: %v", ErrControlUnsupported, id, err)
	}
	return Control{
		Value: int32(ctrl.Value),
		Min:   int32(ctrl.Minimum),
		Max:   int32(ctrl.Maximum),
	}, nil
}

func (d *go4vlDevice) SetControl(id uint32, value int32) error {
	if err := d.dev.SetControlValue(v4l2.CtrlID(id), v4l2.CtrlValue(value)); err != nil {
		return fmt.Errorf("set control %#x: %w", id, err)
	}
	return nil
}

func (d *go4vlDevice) Close() error {
	return d.dev.Close()
}
