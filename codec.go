// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

package sum

import "github.com/corestream/sum/lib/codec"

// encodeUpdate CBOR-encodes u for storage in an UPDATE checkpoint
// record. The manager never interprets these bytes itself; it only
// replays them back into a fresh Update value of the caller-supplied
// concrete type during recovery.
func encodeUpdate[FrameworkID comparable](u Update[FrameworkID]) ([]byte, error) {
	return codec.Marshal(u)
}

// decodeUpdate CBOR-decodes data into a freshly constructed update
// obtained from newUpdate. newUpdate must return a pointer to the
// same concrete type encodeUpdate was given, or decoding fails.
func decodeUpdate[FrameworkID comparable](data []byte, newUpdate NewUpdateFunc[FrameworkID]) (Update[FrameworkID], error) {
	u := newUpdate()
	if err := codec.Unmarshal(data, u); err != nil {
		return nil, err
	}
	return u, nil
}
