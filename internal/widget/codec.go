package widget

import "github.com/fxamacker/cbor/v2"

// encMode uses Core Deterministic Encoding so an unchanged snapshot
// always produces identical bytes and the widget can skip redraws by
// comparing blobs.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("widget: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("widget: CBOR decoder initialization failed: " + err.Error())
	}
}
