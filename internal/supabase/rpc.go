package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// RPC calls a PostgREST function and returns its raw JSON result.
func (c *Client) RPC(ctx context.Context, fn string, args any) (json.RawMessage, error) {
	if fn == "" {
		return nil, errors.New("supabase: rpc function name required")
	}
	if args == nil {
		args = struct{}{}
	}
	var result json.RawMessage
	if _, err := c.do(ctx, http.MethodPost, rpcPath+"/"+fn, nil, args, &result); err != nil {
		return nil, err
	}
	return result, nil
}
