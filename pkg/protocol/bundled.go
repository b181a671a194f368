package protocol

import _ "embed"

//go:embed dictionary/fix44.yaml
var bundledDictionary []byte

// Bundled parses and returns the protocol dictionary shipped inside this
// binary: the administrative message set (Logon, Heartbeat, TestRequest,
// ResendRequest, Reject, SequenceReset, Logout) plus NewOrderSingle, the
// one application message this engine ships a reference definition for.
// An embedding application with a richer dictionary loads it with Load
// instead.
func Bundled() (*Protocol, error) {
	return LoadBytes(bundledDictionary)
}
