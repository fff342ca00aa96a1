package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newClient(g *globalFlags) *resty.Client {
	c := resty.New().
		SetBaseURL(g.api).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	if g.token != "" {
		c.SetAuthToken(g.token)
	}
	return c
}

// check turns non-2xx responses into errors carrying the server message.
func check(resp *resty.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		var e apiError
		if json.Unmarshal(resp.Body(), &e) == nil && e.Message != "" {
			if e.Error != "" {
				return nil, fmt.Errorf("%s: %s (%s)", resp.Status(), e.Message, e.Error)
			}
			return nil, fmt.Errorf("%s: %s", resp.Status(), e.Message)
		}
		return nil, fmt.Errorf("%s: %s", resp.Status(), string(resp.Body()))
	}
	return resp.Body(), nil
}

func printJSON(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprintln(w, buf.String())
	return err
}
