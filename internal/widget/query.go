package widget

import (
	"context"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"docvia-widget/internal/dto"
)

type QueryClient struct {
	client   *Client
	acquirer Acquirer
	now      func() time.Time
}

func NewQueryClient(client *Client, acquirer Acquirer, now func() time.Time) *QueryClient {
	if now == nil {
		now = time.Now
	}
	return &QueryClient{
		client:   client,
		acquirer: acquirer,
		now:      now,
	}
}

// Query submits text with token, acquiring a new token first when token has
// expired. The token actually used is returned in the answer so callers can
// keep it for later queries.
func (q *QueryClient) Query(ctx context.Context, appKey string, token Token, text string) (Answer, error) {
	if strings.TrimSpace(text) == "" {
		return Answer{}, newError(KindInvalidArgument, "query text is required", nil)
	}

	answer := Answer{Token: token}
	if !token.Valid(q.now()) {
		access, err := q.acquirer.Acquire(ctx, appKey)
		if err != nil {
			return Answer{}, err
		}
		answer.Token = access.Token
		answer.Refreshed = true
	}

	body, err := q.client.post(ctx, queryPath, answer.Token.Token, dto.QueryRequest{Query: text})
	if err != nil {
		return Answer{}, err
	}

	if !gjson.ValidBytes(body) {
		return Answer{}, newError(KindDecode, "decode query response", nil)
	}
	if data := gjson.GetBytes(body, "data"); data.Type == gjson.String {
		answer.Text = data.Str
	}

	return answer, nil
}
