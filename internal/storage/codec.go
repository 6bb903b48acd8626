package storage

import (
	"encoding/json"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// tagJSONNumber marks report field numbers kept in their JSON text form.
const tagJSONNumber = 19022

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	tags := cbor.NewTagSet()
	if err := tags.Add(
		cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired},
		reflect.TypeOf(json.Number("")),
		tagJSONNumber,
	); err != nil {
		panic("storage: CBOR tag registration failed: " + err.Error())
	}

	var err error
	encMode, err = cbor.CoreDetEncOptions().EncModeWithTags(tags)
	if err != nil {
		panic("storage: CBOR encoder initialization failed: " + err.Error())
	}

	// Report fields are map[string]any; nested maps must decode the same way.
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecModeWithTags(tags)
	if err != nil {
		panic("storage: CBOR decoder initialization failed: " + err.Error())
	}
}

func marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
