//go:build darwin

// Package platform holds the macOS window activation calls the alarm
// window needs; other systems get no-ops.
package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework AppKit
#import <Cocoa/Cocoa.h>
#import <AppKit/AppKit.h>

void hideDockIcon(void) {
    [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
}

int isFrontmost(void) {
    return [NSApp isActive] ? 1 : 0;
}

void bringToFront(void) {
    [NSApp activateIgnoringOtherApps:YES];
}
*/
import "C"

// HideDockIcon runs the app as a menu bar accessory
func HideDockIcon() {
	C.hideDockIcon()
}

// IsFrontmost reports whether the app owns keyboard focus
func IsFrontmost() bool {
	return C.isFrontmost() == 1
}

// BringToFront activates the app over whatever the user is doing
func BringToFront() {
	C.bringToFront()
}
