// Package notify submits packed bitmaps as transient notifications on a
// compositor overlay.
//
// A Submitter never owns the overlay it submits to: creating and destroying
// overlays is left to an OverlayManager held by the caller. The bitmap
// descriptor handed to the Compositor references the caller's buffer and is
// only valid for the duration of the CreateNotification call.
package notify
