// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

//go:build integration

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"

	. "github.com/onsi/gomega" //nolint:revive // gomega convention
)

// client is a browser-like API client with its own cookie jar.
type client struct {
	http *http.Client
}

func newClient() *client {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &client{http: &http.Client{Jar: jar}}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) decode(v any) {
	Expect(json.Unmarshal(r.body, v)).To(Succeed(), string(r.body))
}

func (r response) message() string {
	var body struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}
	r.decode(&body)
	Expect(body.Status).To(Equal(r.status))
	return body.Message
}

func (c *client) do(method, path string, body any) response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(env.ctx, method, env.server.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return response{status: resp.StatusCode, header: resp.Header, body: raw}
}

// signup registers and logs in, leaving the session cookie in the jar.
func (c *client) signup(name, email, password string) {
	resp := c.do(http.MethodPost, "/users/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
	Expect(resp.status).To(Equal(http.StatusOK), string(resp.body))

	resp = c.do(http.MethodPost, "/users/login", map[string]string{"email": email, "password": password})
	Expect(resp.status).To(Equal(http.StatusOK), string(resp.body))
}
