// Package dbus delivers notifications to an org.freedesktop.Notifications
// server on the session bus. VR overlay shells mirror these into the headset,
// so the package acts as the compositor behind notify.Submitter: overlays are
// tracked locally and each notification carries its bitmap as the image-data
// hint.
package dbus
