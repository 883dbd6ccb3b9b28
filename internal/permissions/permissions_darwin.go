//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation
#import <AVFoundation/AVFoundation.h>

int checkAudioCapturePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestAudioCapturePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

import "fmt"

const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

// CheckAudioCapture returns the current audio input permission status.
// Reading from a loopback driver counts as audio input on macOS, so the
// microphone authorization covers it.
func CheckAudioCapture() (int, error) {
	status := int(C.checkAudioCapturePermission())
	return status, nil
}

// RequestAudioCapture triggers the system audio input permission dialog
func RequestAudioCapture() error {
	C.requestAudioCapturePermission()
	return nil
}

// EnsureCapture checks and requests the permissions needed for capture
func EnsureCapture() error {
	status, _ := CheckAudioCapture()
	if status != PermissionAuthorized {
		fmt.Println("⚠️  Audio input permission required to read from the loopback device")
		RequestAudioCapture()
		return fmt.Errorf("audio input permission not granted")
	}
	return nil
}
