package service

import "context"

// Quotes отдаёт цену из websocket-кэша, а при его отсутствии идёт в REST.
type Quotes struct {
	stream *Stream
	client *Client
}

func NewQuotes(stream *Stream, client *Client) *Quotes {
	return &Quotes{stream: stream, client: client}
}

func (q *Quotes) Price(ctx context.Context, symbol string) (float64, error) {
	if q.stream != nil {
		if p, ok := q.stream.Price(symbol); ok {
			return p, nil
		}
	}
	return q.client.Price(ctx, symbol)
}
