package gateway

import (
	"context"
	"fmt"

	"github.com/CodeWithGeorg/Academic/internal/domain"
)

type MessageGateway struct {
	base
	collection string
}

func (g *MessageGateway) CollectionID() string {
	return g.collection
}

func (g *MessageGateway) ListAll(ctx context.Context) ([]domain.Message, error) {
	docs, err := g.list(ctx, "list messages", g.collection, "sentAt", g.limits.List)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, DecodeMessage)
}

func (g *MessageGateway) Create(ctx context.Context, input domain.NewMessage) (domain.Message, error) {
	const op = "create message"
	if err := Validate(input); err != nil {
		return domain.Message{}, err
	}
	if err := g.check(op, g.collection); err != nil {
		return domain.Message{}, err
	}
	id, err := newDocumentID()
	if err != nil {
		return domain.Message{}, err
	}
	payload := map[string]any{
		"senderId":   input.SenderID,
		"senderName": input.SenderName,
		"subject":    input.Subject,
		"content":    input.Content,
		"sentAt":     formatTime(g.now()),
	}
	doc, err := g.store.CreateDocument(ctx, g.db, g.collection, id, payload, nil)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%s: %w", op, err)
	}
	return DecodeMessage(*doc)
}
