package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// DecodeRanking validates a ranking payload of the form {"recommended_ids": [n, ...]}
// and returns the ids in oracle order.
//
// The payload must be an object whose recommended_ids field is an array of JSON
// numbers; anything else yields ErrMalformedResponse. Numbers that cannot name an
// item (fractional, negative or out of range) are skipped rather than rejected,
// since they would never resolve anyway.
func DecodeRanking(raw []byte) ([]uint, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	field, ok := envelope["recommended_ids"]
	if !ok {
		return nil, fmt.Errorf("%w: missing recommended_ids", ErrMalformedResponse)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(field, &elems); err != nil || elems == nil {
		return nil, fmt.Errorf("%w: recommended_ids is not an array", ErrMalformedResponse)
	}

	ids := make([]uint, 0, len(elems))
	for i, e := range elems {
		dec := json.NewDecoder(bytes.NewReader(e))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedResponse, i, err)
		}
		n, isNumber := v.(json.Number)
		if !isNumber {
			return nil, fmt.Errorf("%w: element %d is not a number", ErrMalformedResponse, i)
		}
		f, err := n.Float64()
		if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
			continue
		}
		ids = append(ids, uint(f))
	}
	return ids, nil
}
