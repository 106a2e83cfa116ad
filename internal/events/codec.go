package events

import (
	"encoding/json"
	"fmt"
)

// Unmarshal decodes a wire envelope back into its typed event. Consumers use
// this to react to lifecycle transitions published through the outbox.
func Unmarshal(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	decode := func(dst any) error {
		return json.Unmarshal(env.Data, dst)
	}

	switch env.EventType {
	case TypeRequestCreated:
		var ev RequestCreated
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case TypeRequestUpdated:
		var ev RequestUpdated
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case TypeRequestSubmitted:
		var ev RequestSubmitted
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case TypeRequestAssigned:
		var ev RequestAssigned
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case TypeRequestApproved:
		var ev RequestApproved
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case TypeRequestRejected:
		var ev RequestRejected
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case TypeRequestCancelled:
		var ev RequestCancelled
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case TypeRequestReopened:
		var ev RequestReopened
		if err := decode(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", env.EventType)
	}
}
