package main

import (
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient(apiURL string) *resty.Client {
	return resty.New().
		SetBaseURL(apiURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")
}

// printResult writes the raw response body, failing on non-2xx statuses.
func printResult(resp *resty.Response, out io.Writer) error {
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	_, err := fmt.Fprintln(out, resp.String())
	return err
}

func runMembersList(apiURL, query string, out io.Writer) error {
	req := newClient(apiURL).R()
	if query != "" {
		req.SetQueryParam("q", query)
	}
	resp, err := req.Get("/api/members")
	if err != nil {
		return err
	}
	return printResult(resp, out)
}

func runReceiptsList(apiURL string, out io.Writer) error {
	resp, err := newClient(apiURL).R().Get("/api/receipts")
	if err != nil {
		return err
	}
	return printResult(resp, out)
}

func runReceiptCreate(apiURL, memberID string, amount float64, method, note string, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetBody(map[string]interface{}{
			"memberId": memberID,
			"amount":   amount,
			"method":   method,
			"note":     note,
		}).
		Post("/api/receipts")
	if err != nil {
		return err
	}
	return printResult(resp, out)
}

func runQueriesList(apiURL, status string, out io.Writer) error {
	req := newClient(apiURL).R()
	if status != "" {
		req.SetQueryParam("status", status)
	}
	resp, err := req.Get("/api/queries")
	if err != nil {
		return err
	}
	return printResult(resp, out)
}

func runQueryReply(apiURL, queryID, memberID, message string, out io.Writer) error {
	body := map[string]interface{}{"message": message}
	if memberID != "" {
		body["memberId"] = memberID
	}
	resp, err := newClient(apiURL).R().
		SetBody(body).
		Post("/api/queries/" + queryID + "/replies")
	if err != nil {
		return err
	}
	return printResult(resp, out)
}

func runQueryStatus(apiURL, queryID, status string, out io.Writer) error {
	resp, err := newClient(apiURL).R().
		SetBody(map[string]string{"status": status}).
		Put("/api/queries/" + queryID + "/status")
	if err != nil {
		return err
	}
	return printResult(resp, out)
}
