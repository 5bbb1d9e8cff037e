package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient(api string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(api, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(30 * time.Second)
}

// do sends the request and returns the body, turning non-2xx responses into errors
// that carry the server's message.
func do(c *resty.Client, method, path string, query map[string]string, payload interface{}) ([]byte, error) {
	req := c.R().SetQueryParams(query)
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		var e struct {
			Message string `json:"message"`
			Field   string `json:"field"`
		}
		if json.Unmarshal(resp.Body(), &e) == nil && e.Message != "" {
			if e.Field != "" {
				return nil, fmt.Errorf("http %d: %s (field %s)", resp.StatusCode(), e.Message, e.Field)
			}
			return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), e.Message)
		}
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return resp.Body(), nil
}

func (o *options) get(out io.Writer, path string, query map[string]string) error {
	data, err := do(newClient(o.api), http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, string(data))
	return nil
}

func (o *options) send(out io.Writer, method, path string, payload interface{}) error {
	data, err := do(newClient(o.api), method, path, nil, payload)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, string(data))
	return nil
}
