//go:build !linux

package v4l2cam

func openDevice(string) (controlDevice, error) {
	return nil, ErrUnsupportedPlatform
}
