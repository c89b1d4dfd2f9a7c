//go:build linux

package input

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/teslashibe/go-focus/internal/log"
)

// absInfo mirrors struct input_absinfo.
type absInfo struct {
	Value      int32
	Min        int32
	Max        int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr(dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift)
}

// EVIOCGABS(abs) = _IOR('E', 0x40 + abs, struct input_absinfo)
func evioCGAbs(code int) uintptr {
	return ioc(iocRead, 'E', uint32(0x40+code), uint32(unsafe.Sizeof(absInfo{})))
}

// EVIOCGRAB = _IOW('E', 0x90, int)
func evioCGrab() uintptr {
	return ioc(iocWrite, 'E', 0x90, uint32(unsafe.Sizeof(int32(0))))
}

// Touch reads an evdev device and feeds recognized actions to a Target.
type Touch struct {
	f      *os.File
	path   string
	mapper Mapper
	logger *slog.Logger
}

// OpenTouch opens an evdev node. Coordinates are mapped into view; grab
// requests exclusive access so the desktop does not see the touches.
func OpenTouch(path string, view image.Rectangle, grab bool, logger *slog.Logger) (*Touch, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	t := &Touch{f: f, path: path, logger: log.Or(logger, "input").With("device", path)}

	mapper := Mapper{X: Axis{0, int32(view.Dx())}, Y: Axis{0, int32(view.Dy())}, View: view}
	raw, err := f.SyscallConn()
	if err != nil {
		f.Close()
		return nil, err
	}
	ctlErr := raw.Control(func(fd uintptr) {
		if info, err := getAbsInfo(fd, AbsX); err == nil {
			mapper.X = Axis{info.Min, info.Max}
		}
		if info, err := getAbsInfo(fd, AbsY); err == nil {
			mapper.Y = Axis{info.Min, info.Max}
		}
		if grab {
			var one int32 = 1
			if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, evioCGrab(), uintptr(unsafe.Pointer(&one))); errno != 0 {
				t.logger.Warn("exclusive grab failed", "error", errno)
			}
		}
	})
	if ctlErr != nil {
		f.Close()
		return nil, ctlErr
	}
	t.mapper = mapper
	t.logger.Info("touch input opened", "x", mapper.X, "y", mapper.Y, "view", view)
	return t, nil
}

func getAbsInfo(fd uintptr, code int) (absInfo, error) {
	var info absInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, evioCGAbs(code), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return absInfo{}, errno
	}
	return info, nil
}

// recordSize is sizeof(struct input_event) for this build.
const recordSize = int(unsafe.Sizeof(unix.Timeval{})) + 8

// Run reads events until ctx is cancelled or the device goes away.
func (t *Touch) Run(ctx context.Context, target Target) error {
	go func() {
		<-ctx.Done()
		t.f.Close()
	}()

	rec := NewRecognizer(t.mapper)
	parser := Parser{Size: recordSize}
	buf := make([]byte, recordSize*64)
	for {
		n, err := t.f.Read(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read %s: %w", t.path, err)
		}
		parser.Feed(buf[:n], func(ev Event) {
			a, ok := rec.Handle(ev)
			if !ok {
				return
			}
			t.logger.Debug("input action", "action", a.Kind, "x", a.X, "y", a.Y)
			if err := Dispatch(ctx, target, a); err != nil {
				t.logger.Warn("dispatch failed", "action", a.Kind, "error", err)
			}
		})
	}
}

// Close releases the device.
func (t *Touch) Close() error {
	return t.f.Close()
}
