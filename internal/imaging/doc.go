// Package imaging loads, edits and annotates the photos textmap works on.
//
// It covers three jobs:
//   - Loading: ImageCache decodes image files once (applying EXIF
//     orientation, as phone photos need) and reuses them across calls.
//   - Editing: ApplyEdit crops and rotates a selection before recognition,
//     and SaveFullQuality writes the result back to disk without visible
//     quality loss.
//   - Overlay: Overlay draws highlighted block rectangles with index badges
//     over a photo so a client can see where each text block sits.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner.
// For regions, (x1,y1) is inclusive and (x2,y2) is exclusive.
//
// # Image References
//
// Images are identified by references: filesystem paths or file:// URIs.
// PathFromRef turns either form into a path.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions are
// stateless.
package imaging
