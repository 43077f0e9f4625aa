// Package codec implements the structured content protocol: the action
// set and click intent payloads exchanged over the mesh transport, with
// fallback rendering for clients that cannot interpret them.
package codec

import (
	"errors"
	"fmt"
)

// supportedEncoding is the only text encoding the codecs accept
const supportedEncoding = "utf-8"

// ErrUnsupportedEncoding is returned when a payload declares an encoding
// other than utf-8
var ErrUnsupportedEncoding = errors.New("unsupported content encoding")

// ContentTypeID identifies a structured content type on the wire
type ContentTypeID struct {
	Authority    string `json:"authorityId"`
	TypeID       string `json:"typeId"`
	VersionMajor int    `json:"versionMajor"`
	VersionMinor int    `json:"versionMinor"`
}

// String renders the canonical authority/type:version form
func (t ContentTypeID) String() string {
	return fmt.Sprintf("%s/%s:%d.%d", t.Authority, t.TypeID, t.VersionMajor, t.VersionMinor)
}

// Matches compares authority and type, ignoring minor version
func (t ContentTypeID) Matches(other ContentTypeID) bool {
	return t.Authority == other.Authority &&
		t.TypeID == other.TypeID &&
		t.VersionMajor == other.VersionMajor
}

// EncodedContent is the transport-level envelope for structured payloads
type EncodedContent struct {
	Type       ContentTypeID     `json:"type"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Fallback   string            `json:"fallback,omitempty"`
	Content    []byte            `json:"content"`
}

// checkEncoding rejects payloads declaring anything but utf-8
func checkEncoding(params map[string]string) error {
	enc, ok := params["encoding"]
	if ok && enc != supportedEncoding {
		return fmt.Errorf("%w: %q", ErrUnsupportedEncoding, enc)
	}
	return nil
}

func textParameters() map[string]string {
	return map[string]string{"encoding": supportedEncoding}
}
