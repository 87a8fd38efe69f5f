//go:build windows

package audio

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// Core Audio class and interface identifiers.
var (
	clsidMMDeviceEnumerator  = ole.NewGUID("{BCDE0395-E52F-467C-8E3D-C4579291692E}")
	iidIMMDeviceEnumerator   = ole.NewGUID("{A95664D2-9614-4F35-A746-DE8DB63617E6}")
	iidIAudioEndpointVolume  = ole.NewGUID("{5CDF2C82-841E-4546-9722-0CF74078229A}")
	iidIAudioSessionManager2 = ole.NewGUID("{77AA99A0-1BD6-484F-8BC7-2C654C9A9B6F}")
	iidIAudioSessionControl2 = ole.NewGUID("{BFB7FF88-7239-4FC9-8FA2-07C950BE9C6D}")
	iidISimpleAudioVolume    = ole.NewGUID("{87CE5498-68D6-44E5-9215-6DA47EF883D8}")
)

const (
	dataFlowRender = 0 // EDataFlow: playback endpoints
	roleConsole    = 0 // ERole: default device for general audio

	clsctxAll = 0x17 // CLSCTX_ALL

	hrSFalse         = 0x00000001 // S_FALSE
	hrRPCChangedMode = 0x80010106 // RPC_E_CHANGED_MODE
)

// withCOM runs fn with COM initialized on a locked OS thread. Hotkey
// callbacks arrive on arbitrary goroutines, so every audio operation scopes
// its own apartment instead of assuming process-wide initialization.
func withCOM(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	uninitialize := true
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) {
			return fmt.Errorf("initialize COM: %w", err)
		}
		switch oleErr.Code() {
		case hrSFalse:
			// Already initialized on this thread. The deferred
			// CoUninitialize keeps the reference count balanced.
		case hrRPCChangedMode:
			// The thread is committed to a different apartment model.
			// It is usable as is but must not be uninitialized here.
			uninitialize = false
		default:
			return fmt.Errorf("initialize COM: %w", err)
		}
	}
	if uninitialize {
		defer ole.CoUninitialize()
	}
	return fn()
}

func comErr(hr uintptr) error {
	if int32(hr) < 0 {
		return ole.NewError(hr)
	}
	return nil
}

func bool01(b bool) uintptr {
	if b {
		return 1
	}
	return 0
}

func queryInterface(unknown *ole.IUnknown, iid *ole.GUID, out unsafe.Pointer) error {
	vtbl := (*ole.IUnknownVtbl)(unsafe.Pointer(unknown.RawVTable))
	hr, _, _ := syscall.SyscallN(vtbl.QueryInterface,
		uintptr(unsafe.Pointer(unknown)),
		uintptr(unsafe.Pointer(iid)),
		uintptr(out),
	)
	return comErr(hr)
}

type deviceEnumerator struct {
	ole.IUnknown
}

type deviceEnumeratorVtbl struct {
	ole.IUnknownVtbl
	EnumAudioEndpoints                     uintptr
	GetDefaultAudioEndpoint                uintptr
	GetDevice                              uintptr
	RegisterEndpointNotificationCallback   uintptr
	UnregisterEndpointNotificationCallback uintptr
}

func newDeviceEnumerator() (*deviceEnumerator, error) {
	unknown, err := ole.CreateInstance(clsidMMDeviceEnumerator, iidIMMDeviceEnumerator)
	if err != nil {
		return nil, fmt.Errorf("create device enumerator: %w", err)
	}
	return (*deviceEnumerator)(unsafe.Pointer(unknown)), nil
}

func (v *deviceEnumerator) vtbl() *deviceEnumeratorVtbl {
	return (*deviceEnumeratorVtbl)(unsafe.Pointer(v.RawVTable))
}

// defaultRenderDevice returns the default playback endpoint.
func (v *deviceEnumerator) defaultRenderDevice() (*mmDevice, error) {
	var device *mmDevice
	hr, _, _ := syscall.SyscallN(v.vtbl().GetDefaultAudioEndpoint,
		uintptr(unsafe.Pointer(v)),
		dataFlowRender,
		roleConsole,
		uintptr(unsafe.Pointer(&device)),
	)
	if err := comErr(hr); err != nil {
		return nil, fmt.Errorf("get default render endpoint: %w", err)
	}
	return device, nil
}

type mmDevice struct {
	ole.IUnknown
}

type mmDeviceVtbl struct {
	ole.IUnknownVtbl
	Activate          uintptr
	OpenPropertyStore uintptr
	GetId             uintptr
	GetState          uintptr
}

func (v *mmDevice) vtbl() *mmDeviceVtbl {
	return (*mmDeviceVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *mmDevice) activate(iid *ole.GUID, out unsafe.Pointer) error {
	hr, _, _ := syscall.SyscallN(v.vtbl().Activate,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(iid)),
		clsctxAll,
		0, // no activation parameters
		uintptr(out),
	)
	return comErr(hr)
}

func (v *mmDevice) endpointVolume() (*endpointVolume, error) {
	var out *endpointVolume
	if err := v.activate(iidIAudioEndpointVolume, unsafe.Pointer(&out)); err != nil {
		return nil, fmt.Errorf("activate endpoint volume: %w", err)
	}
	return out, nil
}

func (v *mmDevice) sessionManager() (*sessionManager, error) {
	var out *sessionManager
	if err := v.activate(iidIAudioSessionManager2, unsafe.Pointer(&out)); err != nil {
		return nil, fmt.Errorf("activate session manager: %w", err)
	}
	return out, nil
}

type endpointVolume struct {
	ole.IUnknown
}

type endpointVolumeVtbl struct {
	ole.IUnknownVtbl
	RegisterControlChangeNotify   uintptr
	UnregisterControlChangeNotify uintptr
	GetChannelCount               uintptr
	SetMasterVolumeLevel          uintptr
	SetMasterVolumeLevelScalar    uintptr
	GetMasterVolumeLevel          uintptr
	GetMasterVolumeLevelScalar    uintptr
	SetChannelVolumeLevel         uintptr
	SetChannelVolumeLevelScalar   uintptr
	GetChannelVolumeLevel         uintptr
	GetChannelVolumeLevelScalar   uintptr
	SetMute                       uintptr
	GetMute                       uintptr
	GetVolumeStepInfo             uintptr
	VolumeStepUp                  uintptr
	VolumeStepDown                uintptr
	QueryHardwareSupport          uintptr
	GetVolumeRange                uintptr
}

func (v *endpointVolume) vtbl() *endpointVolumeVtbl {
	return (*endpointVolumeVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *endpointVolume) masterVolume() (float64, error) {
	var level float32
	hr, _, _ := syscall.SyscallN(v.vtbl().GetMasterVolumeLevelScalar,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&level)),
	)
	if err := comErr(hr); err != nil {
		return 0, fmt.Errorf("get master volume: %w", err)
	}
	return float64(level), nil
}

func (v *endpointVolume) setMasterVolume(level float64) error {
	hr, _, _ := syscall.SyscallN(v.vtbl().SetMasterVolumeLevelScalar,
		uintptr(unsafe.Pointer(v)),
		uintptr(math.Float32bits(float32(level))),
		0, // event context
	)
	if err := comErr(hr); err != nil {
		return fmt.Errorf("set master volume: %w", err)
	}
	return nil
}

func (v *endpointVolume) muted() (bool, error) {
	var muted int32
	hr, _, _ := syscall.SyscallN(v.vtbl().GetMute,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&muted)),
	)
	if err := comErr(hr); err != nil {
		return false, fmt.Errorf("get master mute: %w", err)
	}
	return muted != 0, nil
}

func (v *endpointVolume) setMuted(mute bool) error {
	hr, _, _ := syscall.SyscallN(v.vtbl().SetMute,
		uintptr(unsafe.Pointer(v)),
		bool01(mute),
		0, // event context
	)
	if err := comErr(hr); err != nil {
		return fmt.Errorf("set master mute: %w", err)
	}
	return nil
}

type sessionManager struct {
	ole.IUnknown
}

type sessionManagerVtbl struct {
	ole.IUnknownVtbl
	GetAudioSessionControl        uintptr
	GetSimpleAudioVolume          uintptr
	GetSessionEnumerator          uintptr
	RegisterSessionNotification   uintptr
	UnregisterSessionNotification uintptr
	RegisterDuckNotification      uintptr
	UnregisterDuckNotification    uintptr
}

func (v *sessionManager) vtbl() *sessionManagerVtbl {
	return (*sessionManagerVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *sessionManager) sessions() (*sessionEnumerator, error) {
	var out *sessionEnumerator
	hr, _, _ := syscall.SyscallN(v.vtbl().GetSessionEnumerator,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&out)),
	)
	if err := comErr(hr); err != nil {
		return nil, fmt.Errorf("enumerate sessions: %w", err)
	}
	return out, nil
}

type sessionEnumerator struct {
	ole.IUnknown
}

type sessionEnumeratorVtbl struct {
	ole.IUnknownVtbl
	GetCount   uintptr
	GetSession uintptr
}

func (v *sessionEnumerator) vtbl() *sessionEnumeratorVtbl {
	return (*sessionEnumeratorVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *sessionEnumerator) count() (int, error) {
	var n int32
	hr, _, _ := syscall.SyscallN(v.vtbl().GetCount,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&n)),
	)
	if err := comErr(hr); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return int(n), nil
}

// session returns the extended control for the session at index. The
// enumerator hands out IAudioSessionControl, which is immediately exchanged
// for IAudioSessionControl2 to reach the owning process id.
func (v *sessionEnumerator) session(index int) (*sessionControl2, error) {
	var unknown *ole.IUnknown
	hr, _, _ := syscall.SyscallN(v.vtbl().GetSession,
		uintptr(unsafe.Pointer(v)),
		uintptr(int32(index)),
		uintptr(unsafe.Pointer(&unknown)),
	)
	if err := comErr(hr); err != nil {
		return nil, fmt.Errorf("get session %d: %w", index, err)
	}
	defer unknown.Release()

	var ctl *sessionControl2
	if err := queryInterface(unknown, iidIAudioSessionControl2, unsafe.Pointer(&ctl)); err != nil {
		return nil, fmt.Errorf("session %d control: %w", index, err)
	}
	return ctl, nil
}

type sessionControl2 struct {
	ole.IUnknown
}

type sessionControl2Vtbl struct {
	ole.IUnknownVtbl
	GetState                           uintptr
	GetDisplayName                     uintptr
	SetDisplayName                     uintptr
	GetIconPath                        uintptr
	SetIconPath                        uintptr
	GetGroupingParam                   uintptr
	SetGroupingParam                   uintptr
	RegisterAudioSessionNotification   uintptr
	UnregisterAudioSessionNotification uintptr
	GetSessionIdentifier               uintptr
	GetSessionInstanceIdentifier       uintptr
	GetProcessId                       uintptr
	IsSystemSoundsSession              uintptr
	SetDuckingPreference               uintptr
}

func (v *sessionControl2) vtbl() *sessionControl2Vtbl {
	return (*sessionControl2Vtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *sessionControl2) processID() (uint32, error) {
	var pid uint32
	hr, _, _ := syscall.SyscallN(v.vtbl().GetProcessId,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&pid)),
	)
	if err := comErr(hr); err != nil {
		return 0, fmt.Errorf("get session process id: %w", err)
	}
	return pid, nil
}

// isSystemSounds reports S_OK from IsSystemSoundsSession, which marks the
// session that plays Windows event sounds. It has no single owning process.
func (v *sessionControl2) isSystemSounds() bool {
	hr, _, _ := syscall.SyscallN(v.vtbl().IsSystemSoundsSession,
		uintptr(unsafe.Pointer(v)),
	)
	return hr == 0
}

func (v *sessionControl2) simpleVolume() (*simpleVolume, error) {
	var out *simpleVolume
	if err := queryInterface(&v.IUnknown, iidISimpleAudioVolume, unsafe.Pointer(&out)); err != nil {
		return nil, fmt.Errorf("session volume control: %w", err)
	}
	return out, nil
}

type simpleVolume struct {
	ole.IUnknown
}

type simpleVolumeVtbl struct {
	ole.IUnknownVtbl
	SetMasterVolume uintptr
	GetMasterVolume uintptr
	SetMute         uintptr
	GetMute         uintptr
}

func (v *simpleVolume) vtbl() *simpleVolumeVtbl {
	return (*simpleVolumeVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *simpleVolume) volume() (float64, error) {
	var level float32
	hr, _, _ := syscall.SyscallN(v.vtbl().GetMasterVolume,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&level)),
	)
	if err := comErr(hr); err != nil {
		return 0, fmt.Errorf("get session volume: %w", err)
	}
	return float64(level), nil
}

func (v *simpleVolume) setVolume(level float64) error {
	hr, _, _ := syscall.SyscallN(v.vtbl().SetMasterVolume,
		uintptr(unsafe.Pointer(v)),
		uintptr(math.Float32bits(float32(level))),
		0, // event context
	)
	if err := comErr(hr); err != nil {
		return fmt.Errorf("set session volume: %w", err)
	}
	return nil
}

func (v *simpleVolume) muted() (bool, error) {
	var muted int32
	hr, _, _ := syscall.SyscallN(v.vtbl().GetMute,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&muted)),
	)
	if err := comErr(hr); err != nil {
		return false, fmt.Errorf("get session mute: %w", err)
	}
	return muted != 0, nil
}

func (v *simpleVolume) setMuted(mute bool) error {
	hr, _, _ := syscall.SyscallN(v.vtbl().SetMute,
		uintptr(unsafe.Pointer(v)),
		bool01(mute),
		0, // event context
	)
	if err := comErr(hr); err != nil {
		return fmt.Errorf("set session mute: %w", err)
	}
	return nil
}
