// Package tags maps numeric EXIF tag identifiers to their canonical names.
package tags

import "strconv"

// Namespace selects which tag table an identifier belongs to.
type Namespace int

const (
	// NamespaceExif covers IFD0 and the Exif sub-IFD, which share one id space.
	NamespaceExif Namespace = iota
	// NamespaceGPS covers the tags stored inside the GPS IFD.
	NamespaceGPS
)

// GPSInfo is the top-level name under which the GPS sub-structure is stored.
const GPSInfo = "GPSInfo"

// GPSInfoID is the IFD0 pointer tag to the GPS IFD.
const GPSInfoID uint16 = 0x8825

// Names of the GPS tags used to build a coordinate.
const (
	GPSLatitudeRef  = "GPSLatitudeRef"
	GPSLatitude     = "GPSLatitude"
	GPSLongitudeRef = "GPSLongitudeRef"
	GPSLongitude    = "GPSLongitude"
	GPSAltitudeRef  = "GPSAltitudeRef"
	GPSAltitude     = "GPSAltitude"
)

// String returns the namespace name
func (n Namespace) String() string {
	switch n {
	case NamespaceExif:
		return "exif"
	case NamespaceGPS:
		return "gps"
	default:
		return "namespace(" + strconv.Itoa(int(n)) + ")"
	}
}

func table(ns Namespace) map[uint16]string {
	switch ns {
	case NamespaceExif:
		return exifTags
	case NamespaceGPS:
		return gpsTags
	default:
		return nil
	}
}

// Lookup returns the canonical name of id in ns and whether it is known.
func Lookup(ns Namespace, id uint16) (string, bool) {
	name, ok := table(ns)[id]
	return name, ok
}

// Resolve returns the canonical name of id in ns, or the decimal form of id
// when the registry does not know it.
func Resolve(ns Namespace, id uint16) string {
	if name, ok := Lookup(ns, id); ok {
		return name
	}
	return strconv.Itoa(int(id))
}

// ID returns the identifier registered under name in ns.
func ID(ns Namespace, name string) (uint16, bool) {
	for id, n := range table(ns) {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// Len returns the number of known tags in ns.
func Len(ns Namespace) int {
	return len(table(ns))
}
