package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/gateway"
)

type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
)

// Event is a typed delta: the full current record, not a diff.
type Event struct {
	Kind    domain.Kind
	Type    EventType
	Channel string
	Record  domain.Record
}

// Classify maps raw event names to a delta type by substring. A delivery
// naming both wins as create; anything else (deletes) is not a delta.
func Classify(events []string) (EventType, bool) {
	update := false
	for _, e := range events {
		if strings.Contains(e, "create") {
			return EventCreate, true
		}
		if strings.Contains(e, "update") {
			update = true
		}
	}
	if update {
		return EventUpdate, true
	}
	return "", false
}

type decodeFunc func(appwrite.Document) (domain.Record, error)

func decoderFor[T domain.Record](decode func(appwrite.Document) (T, error)) decodeFunc {
	return func(doc appwrite.Document) (domain.Record, error) {
		return decode(doc)
	}
}

var decoders = map[domain.Kind]decodeFunc{
	domain.KindAssignments: decoderFor(gateway.DecodeAssignment),
	domain.KindSubmissions: decoderFor(gateway.DecodeSubmission),
	domain.KindUsers:       decoderFor(gateway.DecodeUser),
	domain.KindMessages:    decoderFor(gateway.DecodeMessage),
}

// Decode turns a raw delivery into a typed event for kind. It reports false for
// deliveries that carry no create or update.
func Decode(kind domain.Kind, data appwrite.EventData) (Event, bool, error) {
	typ, ok := Classify(data.Events)
	if !ok {
		return Event{}, false, nil
	}
	decode, found := decoders[kind]
	if !found {
		return Event{}, false, fmt.Errorf("no decoder for kind %q", kind)
	}
	var doc appwrite.Document
	if err := json.Unmarshal(data.Payload, &doc); err != nil {
		return Event{}, false, fmt.Errorf("failed to unmarshal %s payload: %w", kind, err)
	}
	record, err := decode(doc)
	if err != nil {
		return Event{}, false, err
	}
	return Event{Kind: kind, Type: typ, Record: record}, true, nil
}
