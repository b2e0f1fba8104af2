// Package fill writes values into page inputs and notifies the host page's
// framework through synthetic events.
package fill

import (
	"context"
	"time"
)

// Events dispatched to the host page.
const (
	EventInput   = "input"
	EventChange  = "change"
	EventKeyDown = "keydown"
	EventKeyUp   = "keyup"
)

// SetMode selects how a value reaches the element.
type SetMode int

const (
	// SetAssign writes the value property directly.
	SetAssign SetMode = iota
	// SetNative calls the prototype's value setter so frameworks that track
	// the last value they wrote notice the change.
	SetNative
)

func (m SetMode) String() string {
	if m == SetNative {
		return "native"
	}
	return "assign"
}

// Notification levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// NotificationLifetime is how long a browser keeps a notification visible.
const NotificationLifetime = 5 * time.Second

// File is a binary attachment for file inputs.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Surface is where writes land: a static snapshot or a live browser tab.
// Elements are addressed by the unique CSS path of the snapshot node.
type Surface interface {
	Focus(ctx context.Context, path string) error
	Blur(ctx context.Context, path string) error
	SetValue(ctx context.Context, path, value string, mode SetMode) error
	Dispatch(ctx context.Context, path, event string) error
	AttachFile(ctx context.Context, path string, file File) error
	AddClass(ctx context.Context, path, class string) error
	RemoveClass(ctx context.Context, path, class string) error
	Notify(ctx context.Context, message, level string) error
}
